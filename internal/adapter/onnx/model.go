package onnx

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"sync"

	"github.com/sugarme/tokenizer"
	"github.com/sugarme/tokenizer/pretrained"
	ort "github.com/yalue/onnxruntime_go"
)

// Tensor names used by BERT-family exports.
const (
	inputIDs      = "input_ids"
	attentionMask = "attention_mask"
	tokenTypeIDs  = "token_type_ids"
)

// model is the state shared by sequence and token classifiers: the session,
// its tokenizer and the label vocabulary.
type model struct {
	session *ort.DynamicAdvancedSession
	inputs  []string
	labels  []string
	maxLen  int

	tkMu sync.Mutex // tokenizer encodes are serialized
	tk   *tokenizer.Tokenizer
}

func loadModel(rt *Runtime, dir string, maxLen int) (*model, error) {
	if rt == nil {
		return nil, errors.New("onnx runtime not initialized")
	}

	labels, err := loadLabels(dir)
	if err != nil {
		return nil, err
	}

	tk, err := pretrained.FromFile(filepath.Join(dir, "tokenizer.json"))
	if err != nil {
		return nil, fmt.Errorf("load tokenizer: %w", err)
	}

	modelPath := filepath.Join(dir, "model.onnx")
	inputInfo, outputInfo, err := ort.GetInputOutputInfo(modelPath)
	if err != nil {
		return nil, fmt.Errorf("inspect %s: %w", modelPath, err)
	}
	inputs, err := selectInputs(inputInfo)
	if err != nil {
		return nil, err
	}
	if len(outputInfo) == 0 {
		return nil, fmt.Errorf("%s declares no outputs", modelPath)
	}

	session, err := ort.NewDynamicAdvancedSession(modelPath, inputs, []string{outputInfo[0].Name}, nil)
	if err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}

	return &model{
		session: session,
		inputs:  inputs,
		labels:  labels,
		maxLen:  maxLen,
		tk:      tk,
	}, nil
}

// selectInputs keeps the BERT inputs the graph declares, in declaration order.
func selectInputs(info []ort.InputOutputInfo) ([]string, error) {
	known := []string{inputIDs, attentionMask, tokenTypeIDs}
	var names []string
	for _, in := range info {
		if !slices.Contains(known, in.Name) {
			return nil, fmt.Errorf("unsupported model input %q", in.Name)
		}
		names = append(names, in.Name)
	}
	if !slices.Contains(names, inputIDs) {
		return nil, errors.New("model has no input_ids input")
	}
	return names, nil
}

func (m *model) encode(text string) (encoding, error) {
	m.tkMu.Lock()
	enc, err := m.tk.EncodeSingle(text, true)
	m.tkMu.Unlock()
	if err != nil {
		return encoding{}, fmt.Errorf("tokenize: %w", err)
	}
	return fromTokenizer(enc).truncateHead(m.maxLen), nil
}

// run feeds enc through the session and returns the raw output of the given shape.
func (m *model) run(enc encoding, outShape ort.Shape) ([]float32, error) {
	shape := ort.NewShape(1, int64(enc.len()))

	inputs := make([]ort.Value, 0, len(m.inputs))
	defer func() {
		for _, v := range inputs {
			_ = v.Destroy()
		}
	}()
	for _, name := range m.inputs {
		t, err := ort.NewTensor(shape, enc.input(name))
		if err != nil {
			return nil, fmt.Errorf("create %s tensor: %w", name, err)
		}
		inputs = append(inputs, t)
	}

	output, err := ort.NewEmptyTensor[float32](outShape)
	if err != nil {
		return nil, fmt.Errorf("create output tensor: %w", err)
	}
	defer output.Destroy()

	if err := m.session.Run(inputs, []ort.Value{output}); err != nil {
		return nil, fmt.Errorf("run session: %w", err)
	}
	return slices.Clone(output.GetData()), nil
}

func (m *model) close() error {
	if m == nil || m.session == nil {
		return nil
	}
	return m.session.Destroy()
}

// loadLabels reads the label vocabulary from config.json's id2label map,
// falling back to labels.json holding a JSON array.
func loadLabels(dir string) ([]string, error) {
	data, err := os.ReadFile(filepath.Join(dir, "config.json"))
	if err == nil {
		var cfg struct {
			ID2Label map[string]string `json:"id2label"`
		}
		if err := json.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("parse config.json: %w", err)
		}
		if len(cfg.ID2Label) > 0 {
			return labelsFromMap(cfg.ID2Label)
		}
	}

	data, err = os.ReadFile(filepath.Join(dir, "labels.json"))
	if err != nil {
		return nil, fmt.Errorf("no id2label in config.json and no labels.json: %w", err)
	}
	var labels []string
	if err := json.Unmarshal(data, &labels); err != nil {
		return nil, fmt.Errorf("parse labels.json: %w", err)
	}
	if len(labels) == 0 {
		return nil, errors.New("labels.json is empty")
	}
	return labels, nil
}

func labelsFromMap(id2label map[string]string) ([]string, error) {
	labels := make([]string, len(id2label))
	for k, v := range id2label {
		i, err := strconv.Atoi(k)
		if err != nil || i < 0 || i >= len(labels) {
			return nil, fmt.Errorf("invalid id2label key %q", k)
		}
		labels[i] = v
	}
	for i, l := range labels {
		if l == "" {
			return nil, fmt.Errorf("id2label has no label for id %d", i)
		}
	}
	return labels, nil
}
