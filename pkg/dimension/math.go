package dimension

import "math"

// Normalize returns a copy of vec scaled to unit L2 norm. A zero vector is
// returned unchanged (there is no direction to normalize toward).
func Normalize(vec []float32) []float32 {
	var sumSq float64
	for _, v := range vec {
		sumSq += float64(v) * float64(v)
	}
	if sumSq == 0 {
		out := make([]float32, len(vec))
		copy(out, vec)
		return out
	}
	norm := math.Sqrt(sumSq)
	out := make([]float32, len(vec))
	for i, v := range vec {
		out[i] = float32(float64(v) / norm)
	}
	return out
}

// ScaleEmbedding resizes vec to targetDim and L2-normalizes the result.
// Downsampling averages contiguous source cells; upsampling linearly
// interpolates between source cells. Normalization is critical for
// cosine similarity to remain meaningful after resizing.
func ScaleEmbedding(vec []float32, targetDim int) []float32 {
	d := len(vec)
	if targetDim <= 0 || d == 0 {
		return []float32{}
	}
	if d == targetDim {
		return Normalize(vec)
	}

	var scaled []float32
	if targetDim < d {
		scaled = downsample(vec, targetDim)
	} else {
		scaled = upsample(vec, targetDim)
	}
	return Normalize(scaled)
}

// downsample averages contiguous cells floor(i*r)..floor((i+1)*r) with r = d/d'.
func downsample(vec []float32, targetDim int) []float32 {
	d := len(vec)
	r := float64(d) / float64(targetDim)
	out := make([]float32, targetDim)
	for i := 0; i < targetDim; i++ {
		lo := int(math.Floor(float64(i) * r))
		hi := int(math.Floor(float64(i+1) * r))
		if hi <= lo {
			hi = lo + 1
		}
		if hi > d {
			hi = d
		}
		var sum float64
		count := 0
		for j := lo; j < hi; j++ {
			sum += float64(vec[j])
			count++
		}
		if count == 0 {
			out[i] = 0
			continue
		}
		out[i] = float32(sum / float64(count))
	}
	return out
}

// upsample linearly interpolates over r = (d-1)/(d'-1).
func upsample(vec []float32, targetDim int) []float32 {
	d := len(vec)
	out := make([]float32, targetDim)
	if d == 1 {
		for i := range out {
			out[i] = vec[0]
		}
		return out
	}
	r := float64(d-1) / float64(targetDim-1)
	for j := 0; j < targetDim; j++ {
		pos := float64(j) * r
		lo := int(math.Floor(pos))
		if lo >= d-1 {
			out[j] = vec[d-1]
			continue
		}
		frac := pos - float64(lo)
		out[j] = float32(float64(vec[lo])*(1-frac) + float64(vec[lo+1])*frac)
	}
	return out
}
