package pointcloud

// Cloud is an ordered collection of samples as read from a file, along with the metadata
// gathered while reading them.
type Cloud struct {
	samples []*Sample
	meta    MetaData
}

// New returns an empty Cloud.
func New() *Cloud {
	return NewWithPrealloc(0)
}

// NewWithPrealloc returns an empty, preallocated Cloud.
func NewWithPrealloc(size int) *Cloud {
	return &Cloud{
		samples: make([]*Sample, 0, size),
		meta:    NewMetaData(),
	}
}

// NewFromSamples returns a Cloud holding the given samples. hasNormals records whether the
// samples came with normals.
func NewFromSamples(samples []*Sample, hasNormals bool) *Cloud {
	cloud := NewWithPrealloc(len(samples))
	for _, s := range samples {
		cloud.Add(s, hasNormals)
	}
	return cloud
}

// Add appends a sample to the cloud.
func (cloud *Cloud) Add(s *Sample, hasNormal bool) {
	cloud.samples = append(cloud.samples, s)
	cloud.meta.Merge(s.Position(), hasNormal)
}

// Size returns the number of samples in the cloud.
func (cloud *Cloud) Size() int {
	return len(cloud.samples)
}

// MetaData returns the bounding box and attributes of the cloud.
func (cloud *Cloud) MetaData() MetaData {
	return cloud.meta
}

// Samples returns the samples in insertion order.
func (cloud *Cloud) Samples() []*Sample {
	return cloud.samples
}

// Iterate calls fn for each sample in insertion order. If fn returns false, iteration
// stops after the function returns.
func (cloud *Cloud) Iterate(fn func(s *Sample) bool) {
	for _, s := range cloud.samples {
		if !fn(s) {
			return
		}
	}
}
