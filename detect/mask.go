package detect

// candidates holds the decoded detections above the score threshold, in
// model input coordinates
type candidates struct {
	// boxes stored as x, y, w, h quads
	boxes    []float32
	probs    []float32
	classIDs []int
	// coeffs are the mask coefficients, protoChannel per box
	coeffs []float32
}

// count returns the number of candidates
func (c *candidates) count() int {
	return len(c.probs)
}

// decodeOutput reads a YOLOv8-seg detection output laid out channel major
// as [4 + classNum + protoChannel][anchors].  Only anchors whose best class
// is class and whose score reaches threshold are kept.
func decodeOutput(pred []float32, anchors, classNum, protoChannel, class int,
	threshold float32) *candidates {

	c := &candidates{}
	rows := 4 + classNum + protoChannel

	if anchors <= 0 || len(pred) < rows*anchors {
		return c
	}

	at := func(row, i int) float32 {
		return pred[row*anchors+i]
	}

	for i := 0; i < anchors; i++ {

		bestClass := -1
		bestScore := float32(0)

		for k := 0; k < classNum; k++ {
			if s := at(4+k, i); s > bestScore {
				bestScore = s
				bestClass = k
			}
		}

		if bestClass != class || bestScore < threshold {
			continue
		}

		cx, cy, w, h := at(0, i), at(1, i), at(2, i), at(3, i)

		c.boxes = append(c.boxes, cx-w/2, cy-h/2, w, h)
		c.probs = append(c.probs, bestScore)
		c.classIDs = append(c.classIDs, bestClass)

		for k := 0; k < protoChannel; k++ {
			c.coeffs = append(c.coeffs, at(4+classNum+k, i))
		}
	}

	return c
}

// matmulMask multiplies each row of mask coefficients with the prototype
// masks and writes 255 where the object is present.  Out must hold
// boxes * protoSize bytes and be zeroed.
func matmulMask(coeffs, proto []float32, boxes, protoChannel, protoSize int,
	out []uint8) {

	for i := 0; i < boxes; i++ {

		baseA := i * protoChannel
		baseC := i * protoSize

		for j := 0; j < protoSize; j++ {
			var sum float32

			for k := 0; k < protoChannel; k++ {
				sum += coeffs[baseA+k] * proto[k*protoSize+j]
			}

			if sum > 0 {
				out[baseC+j] = 255
			}
		}
	}
}
