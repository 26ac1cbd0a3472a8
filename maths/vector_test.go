package maths

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUpdateVectorRollback(t *testing.T) {
	v := NewUpdateVector(3)
	copy(v.Data(), []float64{1, 2, 3})
	v.Update()
	v.Data()[0] = 10
	v.Data()[2]++
	assert.Equal(t, []float64{10, 2, 4}, v.Data(), "修改后数据错误")
	v.Rollback()
	assert.Equal(t, []float64{1, 2, 3}, v.Data(), "回滚后应恢复原值")

	v.Data()[1] = 5
	v.Update()
	v.Data()[1] = 7
	v.Rollback()
	assert.Equal(t, 5.0, v.Data()[1], "Update 后回滚应保留更新值")
}

func TestUpdateVectorResize(t *testing.T) {
	v := NewUpdateVector(2)
	v.Data()[1] = 3
	v.Resize(4)
	require.Equal(t, 4, v.Len())
	assert.Equal(t, []float64{0, 3, 0, 0}, v.Data())
	v.Data()[0] = 1
	v.Rollback()
	assert.Equal(t, []float64{0, 3, 0, 0}, v.Data(), "调整长度后备份应与当前值一致")

	v.Resize(1)
	assert.Equal(t, []float64{0}, v.Data())
}
