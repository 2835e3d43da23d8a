//go:build gocv
// +build gocv

package vision

import (
	"context"
	"errors"
	"fmt"
	"image"
	"os"

	"gocv.io/x/gocv"

	"vision-chat/internal/domain/entity"
	"vision-chat/internal/logger"
)

// YOLODetector запускает YOLOv8 (ONNX) через OpenCV DNN.
// Сети загружаются один раз при создании и живут до Close.
type YOLODetector struct {
	nets          *pool[*gocv.Net]
	labels        Labels
	annotator     *Annotator
	inputSize     int
	confThreshold float32
	nmsThreshold  float32
	logger        *logger.Logger
}

// NewYOLODetector загружает cfg.Workers копий модели: gocv.Net не потокобезопасна,
// поэтому параллельные запросы получают разные сети из пула.
func NewYOLODetector(cfg DetectorConfig, annotator *Annotator, log *logger.Logger) (*YOLODetector, error) {
	cfg = cfg.withDefaults()

	if _, err := os.Stat(cfg.ModelPath); err != nil {
		return nil, fmt.Errorf("model file not found: %s", cfg.ModelPath)
	}

	nets := make([]*gocv.Net, 0, cfg.Workers)
	closeNets := func() {
		for _, n := range nets {
			n.Close()
		}
	}
	for i := 0; i < cfg.Workers; i++ {
		net := gocv.ReadNetFromONNX(cfg.ModelPath)
		if net.Empty() {
			closeNets()
			return nil, fmt.Errorf("failed to load network from %s", cfg.ModelPath)
		}
		if err := net.SetPreferableBackend(gocv.NetBackendDefault); err != nil {
			net.Close()
			closeNets()
			return nil, fmt.Errorf("set backend: %w", err)
		}
		if err := net.SetPreferableTarget(gocv.NetTargetCPU); err != nil {
			net.Close()
			closeNets()
			return nil, fmt.Errorf("set target: %w", err)
		}
		nets = append(nets, &net)
	}

	log.Info("Detection network %s loaded (%d workers, %d labels)", cfg.ModelPath, cfg.Workers, len(cfg.Labels))

	return &YOLODetector{
		nets:          newPool(nets),
		labels:        cfg.Labels,
		annotator:     annotator,
		inputSize:     cfg.InputSize,
		confThreshold: float32(cfg.ConfidenceThreshold),
		nmsThreshold:  float32(cfg.NMSThreshold),
		logger:        log,
	}, nil
}

// Detect запускает модель на изображении и рисует найденные объекты.
func (d *YOLODetector) Detect(ctx context.Context, imagePath string) (*entity.DetectionOutput, error) {
	data, err := os.ReadFile(imagePath)
	if err != nil {
		return nil, entity.InputError("read image: %v", err)
	}

	mat, err := decodeToMat(data)
	if err != nil {
		return nil, entity.InputError("%v", err)
	}
	defer mat.Close()

	net, err := d.nets.acquire(ctx)
	if err != nil {
		return nil, entity.DetectionError(err)
	}
	cands, err := d.infer(net, mat)
	d.nets.release(net)
	if err != nil {
		return nil, entity.DetectionError(err)
	}

	keep := d.suppress(cands)
	detections := toDetections(cands, keep, d.labels)

	rgb, err := BGRToRGBA(mat.ToBytes(), mat.Cols(), mat.Rows())
	if err != nil {
		return nil, entity.DetectionError(err)
	}
	annotated, err := d.annotator.Annotate(rgb, detections)
	if err != nil {
		return nil, entity.DetectionError(err)
	}

	return &entity.DetectionOutput{
		Detections: detections,
		Annotated:  annotated,
		Width:      mat.Cols(),
		Height:     mat.Rows(),
	}, nil
}

func (d *YOLODetector) infer(net *gocv.Net, mat gocv.Mat) ([]candidate, error) {
	blob := gocv.BlobFromImage(mat, 1.0/255.0, image.Pt(d.inputSize, d.inputSize), gocv.NewScalar(0, 0, 0, 0), true, false)
	defer blob.Close()

	net.SetInput(blob, "")
	output := net.Forward("")
	defer output.Close()

	if output.Empty() {
		return nil, errors.New("empty network output")
	}

	// YOLOv8: [1, 4+C, N]
	dims := output.Size()
	if len(dims) != 3 || dims[1] <= 4 {
		return nil, fmt.Errorf("unexpected output shape %v", dims)
	}
	data, err := output.DataPtrFloat32()
	if err != nil {
		return nil, fmt.Errorf("read output: %w", err)
	}

	scaleX := float64(mat.Cols()) / float64(d.inputSize)
	scaleY := float64(mat.Rows()) / float64(d.inputSize)
	return decodeYOLOv8(data, dims[1]-4, dims[2], scaleX, scaleY, mat.Cols(), mat.Rows(), d.confThreshold)
}

func (d *YOLODetector) suppress(cands []candidate) []int {
	if len(cands) == 0 {
		return nil
	}
	rects := make([]image.Rectangle, len(cands))
	scores := make([]float32, len(cands))
	for i, c := range cands {
		rects[i] = c.rect
		scores[i] = c.score
	}
	return gocv.NMSBoxes(rects, scores, d.confThreshold, d.nmsThreshold)
}

// Close освобождает все сети, дожидаясь завершения текущих запросов.
func (d *YOLODetector) Close() error {
	for _, n := range d.nets.drain() {
		n.Close()
	}
	return nil
}

// decodeToMat превращает байты изображения в gocv.Mat.
func decodeToMat(imageData []byte) (gocv.Mat, error) {
	mat, err := gocv.IMDecode(imageData, gocv.IMReadColor)
	if err == nil && !mat.Empty() {
		return mat, nil
	}
	if !mat.Empty() {
		mat.Close()
	}
	return gocv.NewMat(), errors.New("failed to decode image")
}
