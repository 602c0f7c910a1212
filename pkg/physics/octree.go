// pkg/physics/octree.go
package physics

// Locatable is anything the octree can partition
type Locatable interface {
	GetPosition() Vector3D
	GetBoundingRadius() float64
}

// Octree partitions a snapshot of objects for range queries.
// Objects straddling a node center are inserted into every octant they
// overlap, so queries may return the same object more than once.
type Octree[T Locatable] struct {
	root bool
	// bounds is only computed for the root node
	bounds   Box
	center   Vector3D
	objects  []T
	children [8]*Octree[T]
	count    int
	leaf     bool
}

// NewOctree builds the tree for the given objects. Recursion stops when
// maxDepth is exhausted or a node holds at most maxObjects objects.
func NewOctree[T Locatable](objects []T, maxDepth, maxObjects int) *Octree[T] {
	tree := newOctreeNode(objects, maxDepth, maxObjects)
	tree.root = true
	if len(objects) > 0 {
		tree.bounds = objectBox(objects[0])
		for _, obj := range objects[1:] {
			tree.bounds = tree.bounds.Union(objectBox(obj))
		}
	}
	return tree
}

func objectBox[T Locatable](obj T) Box {
	return BoxAround(obj.GetPosition()).Expand(obj.GetBoundingRadius())
}

func newOctreeNode[T Locatable](objects []T, maxDepth, maxObjects int) *Octree[T] {
	node := &Octree[T]{objects: objects, count: len(objects)}
	if len(objects) == 0 {
		node.leaf = true
		return node
	}

	var sum Vector3D
	for _, obj := range objects {
		sum = sum.Add(obj.GetPosition())
	}
	node.center = sum.Scale(1 / float64(len(objects)))

	if maxDepth <= 0 || len(objects) <= maxObjects {
		node.leaf = true
		return node
	}

	var buckets [8][]T
	for _, obj := range objects {
		pos := obj.GetPosition()
		r := obj.GetBoundingRadius()
		for octant := 0; octant < 8; octant++ {
			if overlapsOctant(octant, node.center, pos.Sub(Vector3D{X: r, Y: r, Z: r}), pos.Add(Vector3D{X: r, Y: r, Z: r})) {
				buckets[octant] = append(buckets[octant], obj)
			}
		}
	}

	for octant, bucket := range buckets {
		if len(bucket) > 0 {
			node.children[octant] = newOctreeNode(bucket, maxDepth-1, maxObjects)
		}
	}
	node.objects = nil
	return node
}

// overlapsOctant reports whether the [min, max] region touches the octant.
// Bit 0 selects the upper X half, bit 1 upper Y, bit 2 upper Z.
func overlapsOctant(octant int, center, min, max Vector3D) bool {
	for axis := 0; axis < 3; axis++ {
		c := center.Component(axis)
		if octant&(1<<axis) != 0 {
			if max.Component(axis) < c {
				return false
			}
		} else if min.Component(axis) >= c {
			return false
		}
	}
	return true
}

// Query returns the objects that could be inside the box
func (o *Octree[T]) Query(box Box) []T {
	if o.root && (o.count == 0 || !o.bounds.Intersects(box)) {
		return nil
	}
	return o.query(box, nil)
}

func (o *Octree[T]) query(box Box, found []T) []T {
	if o.leaf {
		return append(found, o.objects...)
	}
	for octant, child := range o.children {
		if child != nil && overlapsOctant(octant, o.center, box.Min, box.Max) {
			found = child.query(box, found)
		}
	}
	return found
}

// Bounds returns the cached bounding box of the root
func (o *Octree[T]) Bounds() Box {
	return o.bounds
}

// Center returns the mean position of the node's objects
func (o *Octree[T]) Center() Vector3D {
	return o.center
}

// IsLeaf reports whether the node has no children
func (o *Octree[T]) IsLeaf() bool {
	return o.leaf
}

// Len returns the number of objects the node was built from
func (o *Octree[T]) Len() int {
	return o.count
}
