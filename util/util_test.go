package util

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStringSet(t *testing.T) {
	set := NewStringSet()
	set.Add("10.0.0.1")
	set.AddAll([]string{"10.0.0.2", "10.0.0.1"})
	assert.Equal(t, 2, set.Size())
	assert.True(t, set.Has("10.0.0.1"))
	assert.False(t, set.Has("10.0.0.3"))
	set.Remove("10.0.0.1")
	assert.False(t, set.Has("10.0.0.1"))
	assert.Equal(t, 1, set.Size())
}

func TestInt32Set(t *testing.T) {
	set := NewInt32Set()
	set.AddAll([]int32{20301, 20308, 20301})
	assert.Equal(t, 2, set.Size())
	assert.True(t, set.Has(20308))
	assert.False(t, set.Has(20306))
	set.Add(20306)
	assert.True(t, set.Has(20306))
	assert.Equal(t, 3, len(set.ToArray()))
}

func TestIsIPv4(t *testing.T) {
	testCases := []struct {
		addr     string
		expected bool
	}{
		{"192.168.1.10", true},
		{"0.0.0.0", true},
		{"fe80::1", false},
		{"not-an-ip", false},
		{"", false},
	}
	for _, testCase := range testCases {
		assert.Equal(t, testCase.expected, IsIPv4(testCase.addr), testCase.addr)
	}
}

func TestIsIPv6(t *testing.T) {
	testCases := []struct {
		addr     string
		expected bool
	}{
		{"fe80::1", true},
		{"::1", true},
		{"192.168.1.10", false},
		{"garbage", false},
	}
	for _, testCase := range testCases {
		assert.Equal(t, testCase.expected, IsIPv6(testCase.addr), testCase.addr)
	}
}
