package util

type StringSet struct {
	internal map[string]int
}

func NewStringSet() *StringSet {
	return &StringSet{internal: make(map[string]int)}
}

func (set *StringSet) Add(str string) {
	set.internal[str] = 1
}

func (set *StringSet) AddAll(itemSlice []string) {
	for _, item := range itemSlice {
		set.internal[item] = 1
	}
}

func (set *StringSet) Has(str string) bool {
	_, ok := set.internal[str]
	return ok
}

func (set *StringSet) Remove(str string) {
	delete(set.internal, str)
}

func (set *StringSet) ToArray() []string {
	res := make([]string, len(set.internal))
	i := 0
	for key := range set.internal {
		res[i] = key
		i++
	}
	return res
}

func (set *StringSet) Size() int {
	return len(set.internal)
}

type Int32Set struct {
	internal map[int32]int
}

func NewInt32Set() *Int32Set {
	return &Int32Set{internal: make(map[int32]int)}
}

func (set *Int32Set) Add(v int32) {
	set.internal[v] = 1
}

func (set *Int32Set) AddAll(itemSlice []int32) {
	for _, item := range itemSlice {
		set.internal[item] = 1
	}
}

func (set *Int32Set) Has(v int32) bool {
	_, ok := set.internal[v]
	return ok
}

func (set *Int32Set) ToArray() []int32 {
	res := make([]int32, len(set.internal))
	i := 0
	for key := range set.internal {
		res[i] = key
		i++
	}
	return res
}

func (set *Int32Set) Size() int {
	return len(set.internal)
}
