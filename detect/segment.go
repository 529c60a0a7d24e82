package detect

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"sync"

	"github.com/swdee/go-autopark/geom"
	"github.com/swdee/go-autopark/preprocess"
	"gocv.io/x/gocv"
)

const (
	// buffers
	bufMatMul = "matMul"
)

// ErrModelNotLoaded is returned when the segmentation network failed to load
var ErrModelNotLoaded = errors.New("segmentation model not loaded")

// SegmentParams defines the YOLOv8-seg model configuration used for parking
// slot segmentation
type SegmentParams struct {
	// ModelPath is the ONNX model file
	ModelPath string
	// InputSize is the width and height of the square model input
	InputSize int
	// ClassNum is the number of object classes the model has been trained
	// with
	ClassNum int
	// ParkingClass is the class index of a parking slot
	ParkingClass int
	// ScoreThreshold is the minimum score for a detection to be kept
	ScoreThreshold float32
	// NMSThreshold is the maximum allowed Intersection Over Union (IoU)
	// between two bounding boxes for both to be kept
	NMSThreshold float32
	// MaxObjectNumber is the maximum number of slots returned
	MaxObjectNumber int
	// PrototypeChannel, PrototypeHeight and PrototypeWidth define the
	// prototype mask tensor
	PrototypeChannel int
	PrototypeHeight  int
	PrototypeWidth   int
	// MinArea is the minimum contour area in source pixels for a slot
	MinArea float64
}

// DefaultSegmentParams returns parameters for a two class parking model
// with a 640x640 input
func DefaultSegmentParams() SegmentParams {
	return SegmentParams{
		InputSize:        640,
		ClassNum:         2,
		ParkingClass:     1,
		ScoreThreshold:   0.5,
		NMSThreshold:     0.45,
		MaxObjectNumber:  64,
		PrototypeChannel: 32,
		PrototypeHeight:  160,
		PrototypeWidth:   160,
		MinArea:          geom.DefaultMinSlotArea,
	}
}

// Segment detects parking slots with a YOLOv8-seg network run through the
// OpenCV DNN module.  Each detection mask is reduced to the polygon of its
// largest external contour.
type Segment struct {
	Params SegmentParams
	net    gocv.Net
	// outNames are the names of the unconnected output layers
	outNames []string
	resizer  *preprocess.Resizer
	bufPool  *bufferPool
	// mu serialises use of the network
	mu sync.Mutex
}

// NewSegment loads the model and returns a segmentation detector
func NewSegment(p SegmentParams) (*Segment, error) {

	net := gocv.ReadNetFromONNX(p.ModelPath)

	if net.Empty() {
		return nil, fmt.Errorf("%w: %s", ErrModelNotLoaded, p.ModelPath)
	}

	s := &Segment{
		Params:  p,
		net:     net,
		bufPool: newBufferPool(),
	}

	for _, id := range net.GetUnconnectedOutLayers() {
		layer := net.GetLayer(id)
		s.outNames = append(s.outNames, layer.GetName())
		layer.Close()
	}

	protoSize := p.PrototypeHeight * p.PrototypeWidth

	if err := s.bufPool.Create(bufMatMul, p.MaxObjectNumber*protoSize); err != nil {
		net.Close()
		return nil, err
	}

	return s, nil
}

// Close frees the network and letterbox resources
func (s *Segment) Close() error {

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.resizer != nil {
		s.resizer.Close()
		s.resizer = nil
	}

	return s.net.Close()
}

// Detect runs inference on the BGR frame and returns the parking slots
// found, in frame coordinates
func (s *Segment) Detect(img gocv.Mat) ([]geom.Slot, error) {

	if img.Empty() {
		return nil, fmt.Errorf("cannot detect on empty image")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	in := s.Params.InputSize

	if s.resizer == nil || s.resizer.SrcWidth() != img.Cols() ||
		s.resizer.SrcHeight() != img.Rows() {

		if s.resizer != nil {
			s.resizer.Close()
		}

		s.resizer = preprocess.NewResizer(img.Cols(), img.Rows(), in, in)
	}

	letterbox := gocv.NewMat()
	defer letterbox.Close()

	s.resizer.LetterBoxResize(img, &letterbox, color.RGBA{R: 114, G: 114, B: 114, A: 255})

	blob := gocv.BlobFromImage(letterbox, 1.0/255.0, image.Pt(in, in),
		gocv.NewScalar(0, 0, 0, 0), true, false)
	defer blob.Close()

	s.net.SetInput(blob, "")
	outs := s.net.ForwardLayers(s.outNames)

	defer func() {
		for i := range outs {
			outs[i].Close()
		}
	}()

	pred, anchors, proto, err := s.splitOutputs(outs)

	if err != nil {
		return nil, err
	}

	cands := decodeOutput(pred, anchors, s.Params.ClassNum,
		s.Params.PrototypeChannel, s.Params.ParkingClass, s.Params.ScoreThreshold)

	results, coeffs := s.selectResults(cands)

	return s.slotsFromMasks(results, coeffs, proto)
}

// splitOutputs identifies the detection and prototype tensors by rank
func (s *Segment) splitOutputs(outs []gocv.Mat) ([]float32, int, []float32, error) {

	var pred, proto []float32
	anchors := 0

	for i := range outs {
		dims := outs[i].Size()

		data, err := outs[i].DataPtrFloat32()

		if err != nil {
			return nil, 0, nil, fmt.Errorf("error reading output tensor: %w", err)
		}

		switch len(dims) {
		case 3:
			pred = data
			anchors = dims[2]
		case 4:
			proto = data
		}
	}

	if pred == nil || proto == nil {
		return nil, 0, nil, fmt.Errorf("unexpected model outputs, got %d tensors", len(outs))
	}

	want := s.Params.PrototypeChannel * s.Params.PrototypeHeight * s.Params.PrototypeWidth

	if len(proto) < want {
		return nil, 0, nil, fmt.Errorf("prototype tensor too small, expected %d got %d",
			want, len(proto))
	}

	return pred, anchors, proto, nil
}

// selectResults sorts candidates by score, applies NMS and returns the kept
// detections along with their mask coefficients
func (s *Segment) selectResults(c *candidates) ([]Result, []float32) {

	validCount := c.count()

	if validCount == 0 {
		return nil, nil
	}

	indexArray := make([]int, validCount)

	for i := range indexArray {
		indexArray[i] = i
	}

	probs := make([]float32, validCount)
	copy(probs, c.probs)

	quickSortIndiceInverse(probs, 0, validCount-1, indexArray)

	nms(validCount, c.boxes, c.classIDs, indexArray, s.Params.ParkingClass,
		s.Params.NMSThreshold)

	in := s.Params.InputSize
	ch := s.Params.PrototypeChannel

	results := make([]Result, 0)
	coeffs := make([]float32, 0)

	for i := 0; i < validCount; i++ {
		if indexArray[i] == -1 || len(results) >= s.Params.MaxObjectNumber {
			continue
		}

		n := indexArray[i]

		x1 := c.boxes[n*4+0]
		y1 := c.boxes[n*4+1]
		x2 := x1 + c.boxes[n*4+2]
		y2 := y1 + c.boxes[n*4+3]

		results = append(results, Result{
			Box: BoxRect{
				Left:   int(clamp(x1, 0, in)),
				Top:    int(clamp(y1, 0, in)),
				Right:  int(clamp(x2, 0, in)),
				Bottom: int(clamp(y2, 0, in)),
			},
			Probability: probs[i],
			Class:       c.classIDs[n],
		})

		coeffs = append(coeffs, c.coeffs[n*ch:(n+1)*ch]...)
	}

	return results, coeffs
}

// slotsFromMasks builds the mask of every result, maps it back to the
// source frame and converts its largest contour into a slot polygon
func (s *Segment) slotsFromMasks(results []Result, coeffs, proto []float32) ([]geom.Slot, error) {

	if len(results) == 0 {
		return []geom.Slot{}, nil
	}

	ph := s.Params.PrototypeHeight
	pw := s.Params.PrototypeWidth
	protoSize := ph * pw
	in := s.Params.InputSize

	matmulOut := s.bufPool.Get(bufMatMul, len(results)*protoSize)
	defer s.bufPool.Put(bufMatMul, matmulOut)

	matmulMask(coeffs, proto, len(results), s.Params.PrototypeChannel, protoSize,
		matmulOut)

	content := s.resizer.ContentRect()
	srcSize := image.Pt(s.resizer.SrcWidth(), s.resizer.SrcHeight())
	slots := make([]geom.Slot, 0, len(results))

	for b, res := range results {

		box := image.Rect(res.Box.Left, res.Box.Top, res.Box.Right, res.Box.Bottom)

		if box.Empty() {
			continue
		}

		poly, err := s.maskPolygon(matmulOut[b*protoSize:(b+1)*protoSize],
			box, content, srcSize, in)

		if err != nil {
			return nil, err
		}

		if poly == nil {
			continue
		}

		slot, ok := geom.NewSlot(len(slots)+1, poly, s.Params.MinArea)

		if !ok {
			continue
		}

		slots = append(slots, slot)
	}

	return slots, nil
}

// maskPolygon upsamples one prototype mask to the model input, crops it to
// the detection box, removes the letterbox padding and returns the largest
// external contour in source coordinates
func (s *Segment) maskPolygon(protoMask []uint8, box, content image.Rectangle,
	srcSize image.Point, in int) ([]geom.Point, error) {

	small, err := gocv.NewMatFromBytes(s.Params.PrototypeHeight,
		s.Params.PrototypeWidth, gocv.MatTypeCV8U, protoMask)

	if err != nil {
		return nil, fmt.Errorf("error creating mask mat: %w", err)
	}

	defer small.Close()

	full := gocv.NewMat()
	defer full.Close()

	gocv.Resize(small, &full, image.Pt(in, in), 0, 0, gocv.InterpolationLinear)

	cropped := gocv.Zeros(in, in, gocv.MatTypeCV8U)
	defer cropped.Close()

	box = box.Intersect(image.Rect(0, 0, in, in))
	srcROI := full.Region(box)
	dstROI := cropped.Region(box)
	srcROI.CopyTo(&dstROI)
	srcROI.Close()
	dstROI.Close()

	unpadded := cropped.Region(content)
	defer unpadded.Close()

	mask := gocv.NewMat()
	defer mask.Close()

	gocv.Resize(unpadded, &mask, srcSize, 0, 0, gocv.InterpolationLinear)
	gocv.Threshold(mask, &mask, 127, 255, gocv.ThresholdBinary)

	contours := gocv.FindContours(mask, gocv.RetrievalExternal, gocv.ChainApproxSimple)
	defer contours.Close()

	return largestContour(contours, s.Params.MinArea), nil
}

// largestContour returns the points of the contour with the greatest area,
// or nil if there is none reaching minArea
func largestContour(contours gocv.PointsVector, minArea float64) []geom.Point {

	best := -1
	bestArea := 0.0

	for i := 0; i < contours.Size(); i++ {
		if area := gocv.ContourArea(contours.At(i)); best < 0 || area > bestArea {
			best = i
			bestArea = area
		}
	}

	if best < 0 || bestArea < minArea {
		return nil
	}

	pts := contours.At(best).ToPoints()
	poly := make([]geom.Point, len(pts))

	for i, p := range pts {
		poly[i] = geom.Pt(float64(p.X), float64(p.Y))
	}

	return poly
}
