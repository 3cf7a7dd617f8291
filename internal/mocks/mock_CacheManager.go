// Package mocks holds testify mocks in the mockery layout.
package mocks

import (
	"context"
	"time"

	mock "github.com/stretchr/testify/mock"
)

// MockCacheManager is a mock type for the CacheManager type
type MockCacheManager[K ~string, V any] struct {
	mock.Mock
}

type MockCacheManager_Expecter[K ~string, V any] struct {
	mock *mock.Mock
}

func (_m *MockCacheManager[K, V]) EXPECT() *MockCacheManager_Expecter[K, V] {
	return &MockCacheManager_Expecter[K, V]{mock: &_m.Mock}
}

// Get provides a mock function with given fields: ctx, key
func (_m *MockCacheManager[K, V]) Get(ctx context.Context, key K) (V, bool) {
	ret := _m.Called(ctx, key)

	if len(ret) == 0 {
		panic("no return value specified for Get")
	}

	var r0 V
	if rf, ok := ret.Get(0).(func(context.Context, K) V); ok {
		r0 = rf(ctx, key)
	} else if ret.Get(0) != nil {
		r0 = ret.Get(0).(V)
	}

	return r0, ret.Bool(1)
}

// MockCacheManager_Get_Call is a *mock.Call that shadows Run/Return methods with type explicit version for method 'Get'
type MockCacheManager_Get_Call[K ~string, V any] struct {
	*mock.Call
}

// Get is a helper method to define mock.On call
func (_e *MockCacheManager_Expecter[K, V]) Get(ctx interface{}, key interface{}) *MockCacheManager_Get_Call[K, V] {
	return &MockCacheManager_Get_Call[K, V]{Call: _e.mock.On("Get", ctx, key)}
}

func (_c *MockCacheManager_Get_Call[K, V]) Return(_a0 V, _a1 bool) *MockCacheManager_Get_Call[K, V] {
	_c.Call.Return(_a0, _a1)
	return _c
}

// GetWithRefresh provides a mock function with given fields: ctx, key, ttl
func (_m *MockCacheManager[K, V]) GetWithRefresh(ctx context.Context, key K, ttl time.Duration) (V, bool) {
	ret := _m.Called(ctx, key, ttl)

	if len(ret) == 0 {
		panic("no return value specified for GetWithRefresh")
	}

	var r0 V
	if rf, ok := ret.Get(0).(func(context.Context, K, time.Duration) V); ok {
		r0 = rf(ctx, key, ttl)
	} else if ret.Get(0) != nil {
		r0 = ret.Get(0).(V)
	}

	return r0, ret.Bool(1)
}

// MockCacheManager_GetWithRefresh_Call is a *mock.Call that shadows Run/Return methods with type explicit version for method 'GetWithRefresh'
type MockCacheManager_GetWithRefresh_Call[K ~string, V any] struct {
	*mock.Call
}

// GetWithRefresh is a helper method to define mock.On call
func (_e *MockCacheManager_Expecter[K, V]) GetWithRefresh(ctx interface{}, key interface{}, ttl interface{}) *MockCacheManager_GetWithRefresh_Call[K, V] {
	return &MockCacheManager_GetWithRefresh_Call[K, V]{Call: _e.mock.On("GetWithRefresh", ctx, key, ttl)}
}

func (_c *MockCacheManager_GetWithRefresh_Call[K, V]) Return(_a0 V, _a1 bool) *MockCacheManager_GetWithRefresh_Call[K, V] {
	_c.Call.Return(_a0, _a1)
	return _c
}

// Set provides a mock function with given fields: ctx, key, value, ttl
func (_m *MockCacheManager[K, V]) Set(ctx context.Context, key K, value V, ttl time.Duration) {
	_m.Called(ctx, key, value, ttl)
}

// MockCacheManager_Set_Call is a *mock.Call that shadows Run/Return methods with type explicit version for method 'Set'
type MockCacheManager_Set_Call[K ~string, V any] struct {
	*mock.Call
}

// Set is a helper method to define mock.On call
func (_e *MockCacheManager_Expecter[K, V]) Set(ctx interface{}, key interface{}, value interface{}, ttl interface{}) *MockCacheManager_Set_Call[K, V] {
	return &MockCacheManager_Set_Call[K, V]{Call: _e.mock.On("Set", ctx, key, value, ttl)}
}

func (_c *MockCacheManager_Set_Call[K, V]) Return() *MockCacheManager_Set_Call[K, V] {
	_c.Call.Return()
	return _c
}

// Delete provides a mock function with given fields: ctx, keys
func (_m *MockCacheManager[K, V]) Delete(ctx context.Context, keys ...K) {
	_va := make([]interface{}, len(keys))
	for _i := range keys {
		_va[_i] = keys[_i]
	}
	var _ca []interface{}
	_ca = append(_ca, ctx)
	_ca = append(_ca, _va...)
	_m.Called(_ca...)
}

// MockCacheManager_Delete_Call is a *mock.Call that shadows Run/Return methods with type explicit version for method 'Delete'
type MockCacheManager_Delete_Call[K ~string, V any] struct {
	*mock.Call
}

// Delete is a helper method to define mock.On call
func (_e *MockCacheManager_Expecter[K, V]) Delete(ctx interface{}, keys ...interface{}) *MockCacheManager_Delete_Call[K, V] {
	return &MockCacheManager_Delete_Call[K, V]{Call: _e.mock.On("Delete",
		append([]interface{}{ctx}, keys...)...)}
}

func (_c *MockCacheManager_Delete_Call[K, V]) Return() *MockCacheManager_Delete_Call[K, V] {
	_c.Call.Return()
	return _c
}

// DeleteFunc provides a mock function with given fields: ctx, fn
func (_m *MockCacheManager[K, V]) DeleteFunc(ctx context.Context, fn func(K, V) bool) int {
	ret := _m.Called(ctx, fn)

	if len(ret) == 0 {
		panic("no return value specified for DeleteFunc")
	}

	return ret.Int(0)
}

// MockCacheManager_DeleteFunc_Call is a *mock.Call that shadows Run/Return methods with type explicit version for method 'DeleteFunc'
type MockCacheManager_DeleteFunc_Call[K ~string, V any] struct {
	*mock.Call
}

// DeleteFunc is a helper method to define mock.On call
func (_e *MockCacheManager_Expecter[K, V]) DeleteFunc(ctx interface{}, fn interface{}) *MockCacheManager_DeleteFunc_Call[K, V] {
	return &MockCacheManager_DeleteFunc_Call[K, V]{Call: _e.mock.On("DeleteFunc", ctx, fn)}
}

func (_c *MockCacheManager_DeleteFunc_Call[K, V]) Return(_a0 int) *MockCacheManager_DeleteFunc_Call[K, V] {
	_c.Call.Return(_a0)
	return _c
}

// Flush provides a mock function with given fields: ctx
func (_m *MockCacheManager[K, V]) Flush(ctx context.Context) {
	_m.Called(ctx)
}

// Len provides a mock function with no fields
func (_m *MockCacheManager[K, V]) Len() int {
	ret := _m.Called()

	if len(ret) == 0 {
		panic("no return value specified for Len")
	}

	return ret.Int(0)
}

// NewMockCacheManager creates a new instance of MockCacheManager. It also registers a testing interface on the mock and a cleanup function to assert the mocks expectations.
// The first argument is typically a *testing.T value.
func NewMockCacheManager[K ~string, V any](t interface {
	mock.TestingT
	Cleanup(func())
}) *MockCacheManager[K, V] {
	mock := &MockCacheManager[K, V]{}
	mock.Mock.Test(t)

	t.Cleanup(func() { mock.AssertExpectations(t) })

	return mock
}
