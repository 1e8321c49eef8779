package oracle

import (
	"fmt"
	"runtime"
	"sync"

	ort "github.com/yalue/onnxruntime_go"

	"tradebot-backend/internal/domain"
)

// Model scores feature vectors with an ONNX classifier exported from the
// training pipeline. Input is (1, 16) float32, output is (1, 3) class
// probabilities for loss / neutral / profit.
type Model struct {
	mu      sync.Mutex
	session *ort.AdvancedSession
	input   *ort.Tensor[float32]
	output  *ort.Tensor[float32]
}

var _ domain.SignalOracle = (*Model)(nil)

func InitializeORT() error {
	libPath := "/usr/lib/libonnxruntime.so"
	if runtime.GOOS == "windows" {
		libPath = "onnxruntime.dll"
	} else if runtime.GOOS == "darwin" {
		libPath = "libonnxruntime.dylib"
	}
	ort.SetSharedLibraryPath(libPath)
	return ort.InitializeEnvironment()
}

func NewModel(modelPath string) (*Model, error) {
	_ = InitializeORT()

	inputShape := ort.NewShape(1, domain.FeatureCount)
	inputData := make([]float32, domain.FeatureCount)
	inputTensor, err := ort.NewTensor(inputShape, inputData)
	if err != nil {
		return nil, fmt.Errorf("failed to create input tensor: %v", err)
	}

	outputShape := ort.NewShape(1, 3)
	outputTensor, err := ort.NewEmptyTensor[float32](outputShape)
	if err != nil {
		inputTensor.Destroy()
		return nil, fmt.Errorf("failed to create output tensor: %v", err)
	}

	session, err := ort.NewAdvancedSession(modelPath,
		[]string{"input"}, []string{"output"},
		[]ort.Value{inputTensor}, []ort.Value{outputTensor}, nil)
	if err != nil {
		inputTensor.Destroy()
		outputTensor.Destroy()
		return nil, fmt.Errorf("failed to create session: %v", err)
	}

	return &Model{
		session: session,
		input:   inputTensor,
		output:  outputTensor,
	}, nil
}

// Predict returns the argmax class and the probability of the profit class.
func (m *Model) Predict(features *domain.FeatureVector) (int, float64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	data := m.input.GetData()
	for i, v := range features.Slice() {
		data[i] = float32(v)
	}

	if err := m.session.Run(); err != nil {
		return 0, 0, fmt.Errorf("inference failed: %v", err)
	}

	probs := m.output.GetData()
	class := 0
	for i := 1; i < len(probs); i++ {
		if probs[i] > probs[class] {
			class = i
		}
	}
	confidence := float64(probs[domain.ClassProfit])

	return class, confidence, nil
}

func (m *Model) Ready() bool {
	return m != nil && m.session != nil
}

func (m *Model) Close() {
	if m.session != nil {
		m.session.Destroy()
	}
	if m.input != nil {
		m.input.Destroy()
	}
	if m.output != nil {
		m.output.Destroy()
	}
}
