package controller

import (
	"encoding/json"
	"errors"
	"fmt"
	"testing"
)

func TestExportRequiresModel(t *testing.T) {
	ctrl := New(mustMorph("biped"), testConfig(), 42)
	if _, err := ctrl.Export(); !errors.Is(err, ErrNoModel) {
		t.Errorf("Export = %v, want ErrNoModel", err)
	}
}

func TestExportMetadata(t *testing.T) {
	ctrl := New(mustMorph("quadruped"), testConfig(), 42)
	if err := ctrl.CreateModel(); err != nil {
		t.Fatal(err)
	}
	ctrl.Buffer().Add(qualifyingSample(8, 50))

	doc, err := ctrl.Export()
	if err != nil {
		t.Fatal(err)
	}

	md := doc.Metadata
	if md.RobotType != "quadruped" || md.RobotName != "Quadruped" {
		t.Errorf("robot identity = (%q, %q)", md.RobotType, md.RobotName)
	}
	if md.SensorCount != 32 || md.MotorCount != 8 {
		t.Errorf("dimensions = (%d, %d), want (32, 8)", md.SensorCount, md.MotorCount)
	}
	if md.Architecture != "32-32-16-8" {
		t.Errorf("architecture = %q, want 32-32-16-8", md.Architecture)
	}
	if md.TrainingSamples != 1 {
		t.Errorf("training samples = %d, want 1", md.TrainingSamples)
	}
	if md.ModelType != "feedforward" || doc.Version != "1.0" {
		t.Errorf("format fields = (%q, %q)", md.ModelType, doc.Version)
	}
	if md.CreatedAt == "" {
		t.Error("created_at missing")
	}
}

func TestExportTensorShapes(t *testing.T) {
	ctrl := New(mustMorph("biped"), testConfig(), 42)
	if err := ctrl.CreateModel(); err != nil {
		t.Fatal(err)
	}

	doc, err := ctrl.Export()
	if err != nil {
		t.Fatal(err)
	}

	model := ctrl.Model()
	for i := 0; i < len(model.Sizes)-1; i++ {
		in, out := model.Sizes[i], model.Sizes[i+1]

		w, ok := doc.Tensors[fmt.Sprintf("layer_%d_weights", i)]
		if !ok {
			t.Fatalf("missing weights tensor for layer %d", i)
		}
		if w.Dtype != "F32" {
			t.Errorf("layer %d dtype = %q, want F32", i, w.Dtype)
		}
		if len(w.Shape) != 2 || w.Shape[0] != out || w.Shape[1] != in {
			t.Errorf("layer %d weight shape = %v, want [%d %d]", i, w.Shape, out, in)
		}
		if len(w.Data) != in*out {
			t.Errorf("layer %d weight data length = %d, want %d", i, len(w.Data), in*out)
		}

		b, ok := doc.Tensors[fmt.Sprintf("layer_%d_bias", i)]
		if !ok {
			t.Fatalf("missing bias tensor for layer %d", i)
		}
		if len(b.Shape) != 1 || b.Shape[0] != out || len(b.Data) != out {
			t.Errorf("layer %d bias shape = %v / %d values, want [%d]", i, b.Shape, len(b.Data), out)
		}
	}
}

func TestExportRoundTrip(t *testing.T) {
	ctrl := New(mustMorph("biped"), testConfig(), 42)
	if err := ctrl.CreateModel(); err != nil {
		t.Fatal(err)
	}

	data, err := ctrl.ExportJSON()
	if err != nil {
		t.Fatal(err)
	}
	var doc ExportDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		t.Fatal(err)
	}

	restored, err := NetworkFromExport(&doc, 0.01, 0)
	if err != nil {
		t.Fatal(err)
	}

	input := make([]float32, 26)
	for i := range input {
		input[i] = float32(i)*0.1 - 1
	}
	want := ctrl.Model().Forward(input)
	got := restored.Forward(input)
	if len(got) != len(want) {
		t.Fatalf("output width = %d, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("output %d = %v, want exactly %v", i, got[i], want[i])
		}
	}
}

func TestNetworkFromExportRejectsBadDocuments(t *testing.T) {
	ctrl := New(mustMorph("biped"), testConfig(), 42)
	if err := ctrl.CreateModel(); err != nil {
		t.Fatal(err)
	}
	doc, err := ctrl.Export()
	if err != nil {
		t.Fatal(err)
	}

	t.Run("bad architecture", func(t *testing.T) {
		bad := *doc
		bad.Metadata.Architecture = "not-numbers"
		if _, err := NetworkFromExport(&bad, 0.01, 0); err == nil {
			t.Error("accepted malformed architecture")
		}
	})

	t.Run("missing tensor", func(t *testing.T) {
		bad := *doc
		bad.Tensors = map[string]TensorData{}
		if _, err := NetworkFromExport(&bad, 0.01, 0); err == nil {
			t.Error("accepted document without tensors")
		}
	})

	t.Run("wrong tensor length", func(t *testing.T) {
		bad := *doc
		bad.Tensors = make(map[string]TensorData, len(doc.Tensors))
		for k, v := range doc.Tensors {
			bad.Tensors[k] = v
		}
		w := bad.Tensors["layer_0_weights"]
		w.Data = w.Data[:len(w.Data)-1]
		bad.Tensors["layer_0_weights"] = w
		if _, err := NetworkFromExport(&bad, 0.01, 0); err == nil {
			t.Error("accepted truncated weight tensor")
		}
	})
}
