// Copyright (c) 2026 Charboard. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package slice_test

import (
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/taibuivan/charboard/pkg/slice"
)

func TestMap(t *testing.T) {
	assert.Nil(t, slice.Map[int, string](nil, strconv.Itoa))
	assert.Equal(t, []string{"1", "2"}, slice.Map([]int{1, 2}, strconv.Itoa))
}

func TestReduce(t *testing.T) {
	sum := func(acc, v int) int { return acc + v }

	assert.Equal(t, 0, slice.Reduce([]int(nil), 0, sum))
	assert.Equal(t, 6, slice.Reduce([]int{1, 2, 3}, 0, sum))
}
