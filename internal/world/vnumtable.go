package world

// VNum is a virtual number: the stable, author-assigned identity of an area,
// room, object prototype, or mob prototype.
type VNum int32

// vnumBuckets is H in "hash tables are keyed by vnum mod H" — a fixed bucket
// count rather than a resizing map, matching the original server's static
// hash tables (original_source game/src/core/db.c's room_index_hash etc.).
const vnumBuckets = 3001

// VNumTable is a chained hash table keyed by VNum mod vnumBuckets, generic
// over the prototype type it stores (Room, ObjProto, MobProto).
type VNumTable[T any] struct {
	buckets [vnumBuckets][]entry[T]
	count   int
}

type entry[T any] struct {
	vnum VNum
	val  *T
}

func NewVNumTable[T any]() *VNumTable[T] {
	return &VNumTable[T]{}
}

func bucketOf(v VNum) int {
	b := int(v) % vnumBuckets
	if b < 0 {
		b += vnumBuckets
	}
	return b
}

func (t *VNumTable[T]) Put(vnum VNum, val *T) {
	b := bucketOf(vnum)
	for i, e := range t.buckets[b] {
		if e.vnum == vnum {
			t.buckets[b][i].val = val
			return
		}
	}
	t.buckets[b] = append(t.buckets[b], entry[T]{vnum: vnum, val: val})
	t.count++
}

func (t *VNumTable[T]) Get(vnum VNum) (*T, bool) {
	b := bucketOf(vnum)
	for _, e := range t.buckets[b] {
		if e.vnum == vnum {
			return e.val, true
		}
	}
	return nil, false
}

func (t *VNumTable[T]) Delete(vnum VNum) {
	b := bucketOf(vnum)
	bucket := t.buckets[b]
	for i, e := range bucket {
		if e.vnum == vnum {
			t.buckets[b] = append(bucket[:i], bucket[i+1:]...)
			t.count--
			return
		}
	}
}

func (t *VNumTable[T]) Len() int { return t.count }

// Each calls fn for every stored entry. Order is bucket order, not insertion
// order — callers that need a stable order (area loaders) must sort by vnum.
func (t *VNumTable[T]) Each(fn func(VNum, *T)) {
	for _, bucket := range t.buckets {
		for _, e := range bucket {
			fn(e.vnum, e.val)
		}
	}
}
