package controller

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/pthm-cable/standup/neural"
)

// ExportMetadata describes the exported model.
type ExportMetadata struct {
	Format          string `json:"format"`
	Framework       string `json:"framework"`
	CreatedAt       string `json:"created_at"`
	ModelType       string `json:"model_type"`
	Architecture    string `json:"architecture"`
	RobotType       string `json:"robot_type"`
	RobotName       string `json:"robot_name"`
	SensorCount     int    `json:"sensor_count"`
	MotorCount      int    `json:"motor_count"`
	TrainingSamples int    `json:"training_samples"`
	ModelName       string `json:"model_name"`
	ExportVersion   string `json:"export_version"`
}

// TensorData is one named weight or bias tensor. Weight matrices are
// row-major, one row per output neuron.
type TensorData struct {
	Dtype string    `json:"dtype"`
	Shape []int     `json:"shape"`
	Data  []float32 `json:"data"`
}

// ExportDocument is the interchange form of a trained network: metadata
// plus every layer's weights and biases as flat tensors.
type ExportDocument struct {
	Metadata ExportMetadata        `json:"metadata"`
	Tensors  map[string]TensorData `json:"tensors"`
	Version  string                `json:"version"`
}

// Export captures the current model as an interchange document. Returns
// ErrNoModel before CreateModel.
func (c *Controller) Export() (*ExportDocument, error) {
	c.mu.Lock()
	model := c.model
	c.mu.Unlock()
	if model == nil {
		return nil, ErrNoModel
	}

	arch := make([]string, len(model.Sizes))
	for i, s := range model.Sizes {
		arch[i] = strconv.Itoa(s)
	}

	doc := &ExportDocument{
		Metadata: ExportMetadata{
			Format:          "standup-ffnn",
			Framework:       "standup",
			CreatedAt:       time.Now().UTC().Format(time.RFC3339),
			ModelType:       "feedforward",
			Architecture:    strings.Join(arch, "-"),
			RobotType:       c.morph.ID,
			RobotName:       c.morph.DisplayName,
			SensorCount:     c.morph.SensorCount,
			MotorCount:      c.morph.MotorCount,
			TrainingSamples: c.buffer.Len(),
			ModelName:       fmt.Sprintf("%s_standup", c.morph.ID),
			ExportVersion:   "1.0",
		},
		Tensors: make(map[string]TensorData, 2*len(model.Layers)),
		Version: "1.0",
	}

	for i, layer := range model.Layers {
		out := len(layer.W)
		in := 0
		if out > 0 {
			in = len(layer.W[0])
		}
		doc.Tensors[fmt.Sprintf("layer_%d_weights", i)] = TensorData{
			Dtype: "F32",
			Shape: []int{out, in},
			Data:  layer.FlattenWeights(),
		}
		doc.Tensors[fmt.Sprintf("layer_%d_bias", i)] = TensorData{
			Dtype: "F32",
			Shape: []int{out},
			Data:  append([]float32(nil), layer.B...),
		}
	}
	return doc, nil
}

// ExportJSON serializes the current model as indented JSON.
func (c *Controller) ExportJSON() ([]byte, error) {
	doc, err := c.Export()
	if err != nil {
		return nil, err
	}
	return json.MarshalIndent(doc, "", "  ")
}

// NetworkFromExport rebuilds a network from an interchange document. The
// result forward-passes identically to the exported model; training
// hyperparameters are not part of the document and come in as arguments.
func NetworkFromExport(doc *ExportDocument, lr, dropout float32) (*neural.Network, error) {
	sizes, err := parseArchitecture(doc.Metadata.Architecture)
	if err != nil {
		return nil, err
	}

	net := &neural.Network{Sizes: sizes, LR: lr, Dropout: dropout}
	net.Layers = make([]neural.Layer, len(sizes)-1)
	for i := range net.Layers {
		in, out := sizes[i], sizes[i+1]

		wt, ok := doc.Tensors[fmt.Sprintf("layer_%d_weights", i)]
		if !ok {
			return nil, fmt.Errorf("import: missing tensor layer_%d_weights", i)
		}
		if len(wt.Data) != in*out {
			return nil, fmt.Errorf("import: layer %d weights: got %d values, want %d", i, len(wt.Data), in*out)
		}
		bt, ok := doc.Tensors[fmt.Sprintf("layer_%d_bias", i)]
		if !ok {
			return nil, fmt.Errorf("import: missing tensor layer_%d_bias", i)
		}
		if len(bt.Data) != out {
			return nil, fmt.Errorf("import: layer %d bias: got %d values, want %d", i, len(bt.Data), out)
		}

		layer := neural.Layer{
			W: make([][]float32, out),
			B: append([]float32(nil), bt.Data...),
		}
		for r := 0; r < out; r++ {
			layer.W[r] = make([]float32, in)
		}
		if err := layer.SetWeightsFlat(wt.Data); err != nil {
			return nil, fmt.Errorf("import: layer %d: %w", i, err)
		}
		net.Layers[i] = layer
	}
	return net, nil
}

// parseArchitecture turns "26-24-6" back into layer sizes.
func parseArchitecture(arch string) ([]int, error) {
	parts := strings.Split(arch, "-")
	if len(parts) < 2 {
		return nil, fmt.Errorf("import: bad architecture %q", arch)
	}
	sizes := make([]int, len(parts))
	for i, p := range parts {
		n, err := strconv.Atoi(p)
		if err != nil || n < 1 {
			return nil, fmt.Errorf("import: bad architecture %q", arch)
		}
		sizes[i] = n
	}
	return sizes, nil
}
