package table

import (
	reflect "reflect"

	gomock "github.com/golang/mock/gomock"
)

// MockIndex is a hand-written, generics-adapted mock of index.Index[Row],
// in the shape mockgen would produce for a non-generic interface (mockgen
// itself cannot generate mocks for generic interfaces as of this module's
// dependency pin), used by the rollback tests below.
type MockIndex[Row any] struct {
	ctrl     *gomock.Controller
	recorder *MockIndexMockRecorder[Row]
}

// MockIndexMockRecorder is the mock recorder for MockIndex.
type MockIndexMockRecorder[Row any] struct {
	mock *MockIndex[Row]
}

// NewMockIndex creates a new mock instance.
func NewMockIndex[Row any](ctrl *gomock.Controller) *MockIndex[Row] {
	mock := &MockIndex[Row]{ctrl: ctrl}
	mock.recorder = &MockIndexMockRecorder[Row]{mock}
	return mock
}

// EXPECT returns an object that allows the caller to indicate expected use.
func (m *MockIndex[Row]) EXPECT() *MockIndexMockRecorder[Row] {
	return m.recorder
}

// Reserve mocks base method.
func (m *MockIndex[Row]) Reserve(n int) {
	m.ctrl.T.Helper()
	m.ctrl.Call(m, "Reserve", n)
}

// Reserve indicates an expected call of Reserve.
func (mr *MockIndexMockRecorder[Row]) Reserve(n any) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "Reserve", reflect.TypeOf((*MockIndex[Row])(nil).Reserve), n)
}

// Clear mocks base method.
func (m *MockIndex[Row]) Clear() {
	m.ctrl.T.Helper()
	m.ctrl.Call(m, "Clear")
}

// Clear indicates an expected call of Clear.
func (mr *MockIndexMockRecorder[Row]) Clear() *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "Clear", reflect.TypeOf((*MockIndex[Row])(nil).Clear))
}

// Insert mocks base method.
func (m *MockIndex[Row]) Insert(rows []Row, pos int) (int, bool, error) {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "Insert", rows, pos)
	ret0, _ := ret[0].(int)
	ret1, _ := ret[1].(bool)
	ret2, _ := ret[2].(error)
	return ret0, ret1, ret2
}

// Insert indicates an expected call of Insert.
func (mr *MockIndexMockRecorder[Row]) Insert(rows, pos any) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "Insert", reflect.TypeOf((*MockIndex[Row])(nil).Insert), rows, pos)
}

// Erase mocks base method.
func (m *MockIndex[Row]) Erase(rows []Row, pos int) {
	m.ctrl.T.Helper()
	m.ctrl.Call(m, "Erase", rows, pos)
}

// Erase indicates an expected call of Erase.
func (mr *MockIndexMockRecorder[Row]) Erase(rows, pos any) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "Erase", reflect.TypeOf((*MockIndex[Row])(nil).Erase), rows, pos)
}

// Move mocks base method.
func (m *MockIndex[Row]) Move(rows []Row, oldPos, newPos int) {
	m.ctrl.T.Helper()
	m.ctrl.Call(m, "Move", rows, oldPos, newPos)
}

// Move indicates an expected call of Move.
func (mr *MockIndexMockRecorder[Row]) Move(rows, oldPos, newPos any) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "Move", reflect.TypeOf((*MockIndex[Row])(nil).Move), rows, oldPos, newPos)
}
