package onnx

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/sugarme/tokenizer"
	"github.com/sugarme/tokenizer/pretrained"
	ort "github.com/yalue/onnxruntime_go"
	"go.uber.org/zap"

	"github.com/kulkarni-aish-northeastern/resume-job-description-matcher/internal/embedding"
	"github.com/kulkarni-aish-northeastern/resume-job-description-matcher/internal/logger"
)

const (
	DefaultMaxSeqLen = 256

	inputIDs      = "input_ids"
	attentionMask = "attention_mask"
	tokenTypeIDs  = "token_type_ids"
	hiddenState   = "last_hidden_state"
)

var (
	envOnce sync.Once
	envErr  error
)

// Config points at the ONNX runtime library and the exported sentence
// transformer (all-MiniLM-L6-v2 by default).
type Config struct {
	LibraryPath   string
	ModelPath     string
	TokenizerPath string
	MaxSeqLen     int
	Dimension     int
}

// Embedder runs a BERT-style encoder and mean-pools the last hidden state over
// the attention mask. Session runs are serialized.
type Embedder struct {
	mu        sync.Mutex
	session   *ort.DynamicAdvancedSession
	tk        *tokenizer.Tokenizer
	maxSeqLen int
	dimension int
	name      string
	logger    *zap.Logger
}

func New(cfg Config, log *zap.Logger) (*Embedder, error) {
	for _, f := range []struct{ name, path string }{
		{"onnx runtime library", cfg.LibraryPath},
		{"model", cfg.ModelPath},
		{"tokenizer", cfg.TokenizerPath},
	} {
		if strings.TrimSpace(f.path) == "" {
			return nil, fmt.Errorf("%w: %s path is not configured", embedding.ErrModelUnavailable, f.name)
		}
		if _, err := os.Stat(f.path); err != nil {
			return nil, fmt.Errorf("%w: %s: %v", embedding.ErrModelUnavailable, f.name, err)
		}
	}

	if err := initEnvironment(cfg.LibraryPath); err != nil {
		return nil, fmt.Errorf("%w: initialize onnx runtime: %v", embedding.ErrModelUnavailable, err)
	}

	tk, err := pretrained.FromFile(cfg.TokenizerPath)
	if err != nil {
		return nil, fmt.Errorf("%w: load tokenizer: %v", embedding.ErrModelUnavailable, err)
	}

	session, err := ort.NewDynamicAdvancedSession(cfg.ModelPath,
		[]string{inputIDs, attentionMask, tokenTypeIDs},
		[]string{hiddenState},
		nil,
	)
	if err != nil {
		return nil, fmt.Errorf("%w: create session: %v", embedding.ErrModelUnavailable, err)
	}

	maxSeqLen := cfg.MaxSeqLen
	if maxSeqLen <= 0 {
		maxSeqLen = DefaultMaxSeqLen
	}

	dimension := cfg.Dimension
	if dimension <= 0 {
		dimension = embedding.DefaultDimension
	}

	name := "onnx:" + strings.TrimSuffix(filepath.Base(cfg.ModelPath), ".onnx")

	return &Embedder{
		session:   session,
		tk:        tk,
		maxSeqLen: maxSeqLen,
		dimension: dimension,
		name:      name,
		logger:    logger.WithCommonFields(log, "onnx", name),
	}, nil
}

func initEnvironment(libraryPath string) error {
	envOnce.Do(func() {
		ort.SetSharedLibraryPath(libraryPath)
		envErr = ort.InitializeEnvironment()
	})
	return envErr
}

func (e *Embedder) Name() string { return e.name }

func (e *Embedder) Dimension() int { return e.dimension }

func (e *Embedder) Embed(ctx context.Context, text string) ([]float64, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if e == nil || e.session == nil {
		return nil, fmt.Errorf("%w: onnx session is closed", embedding.ErrModelUnavailable)
	}

	enc, err := e.tk.EncodeSingle(text, true)
	if err != nil {
		return nil, fmt.Errorf("tokenize: %w", err)
	}

	ids := truncate(enc.Ids, e.maxSeqLen)
	mask := truncate(padTo(enc.AttentionMask, len(enc.Ids)), e.maxSeqLen)
	types := truncate(enc.TypeIds, e.maxSeqLen)
	if len(ids) == 0 {
		return make([]float64, e.dimension), nil
	}

	seqLen := int64(len(ids))
	shape := ort.NewShape(1, seqLen)

	idsTensor, err := ort.NewTensor(shape, toInt64(ids))
	if err != nil {
		return nil, fmt.Errorf("input ids tensor: %w", err)
	}
	defer idsTensor.Destroy()

	maskTensor, err := ort.NewTensor(shape, toInt64(mask))
	if err != nil {
		return nil, fmt.Errorf("attention mask tensor: %w", err)
	}
	defer maskTensor.Destroy()

	typesTensor, err := ort.NewTensor(shape, toInt64(padTo(types, len(ids))))
	if err != nil {
		return nil, fmt.Errorf("token type tensor: %w", err)
	}
	defer typesTensor.Destroy()

	output, err := ort.NewEmptyTensor[float32](ort.NewShape(1, seqLen, int64(e.dimension)))
	if err != nil {
		return nil, fmt.Errorf("output tensor: %w", err)
	}
	defer output.Destroy()

	e.mu.Lock()
	err = e.session.Run([]ort.Value{idsTensor, maskTensor, typesTensor}, []ort.Value{output})
	e.mu.Unlock()
	if err != nil {
		return nil, fmt.Errorf("%w: run session: %v", embedding.ErrModelUnavailable, err)
	}

	vec, err := meanPool(output.GetData(), mask, e.dimension)
	if err != nil {
		return nil, err
	}

	e.logger.Debug("embedded text", zap.Int("tokens", len(ids)))

	return embedding.Normalize(vec), nil
}

// Close releases the session. The runtime environment stays initialized for
// the lifetime of the process.
func (e *Embedder) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.session == nil {
		return nil
	}
	err := e.session.Destroy()
	e.session = nil
	return err
}

// truncate keeps at most limit tokens. The final token is preserved so a
// trailing [SEP] survives truncation.
func truncate(v []int, limit int) []int {
	if len(v) <= limit || limit <= 0 {
		return v
	}
	out := make([]int, limit)
	copy(out, v[:limit-1])
	out[limit-1] = v[len(v)-1]
	return out
}

func padTo(v []int, n int) []int {
	if len(v) >= n {
		return v[:n]
	}
	out := make([]int, n)
	copy(out, v)
	return out
}

func toInt64(v []int) []int64 {
	out := make([]int64, len(v))
	for i, x := range v {
		out[i] = int64(x)
	}
	return out
}

// meanPool averages token embeddings [seq, dim] where the mask is set.
func meanPool(hidden []float32, mask []int, dim int) ([]float64, error) {
	if dim <= 0 || len(hidden) != len(mask)*dim {
		return nil, errors.New("hidden state shape does not match the attention mask")
	}

	out := make([]float64, dim)
	count := 0
	for tok, m := range mask {
		if m == 0 {
			continue
		}
		count++
		row := hidden[tok*dim : (tok+1)*dim]
		for i, x := range row {
			out[i] += float64(x)
		}
	}

	if count == 0 {
		return out, nil
	}
	for i := range out {
		out[i] /= float64(count)
	}
	return out, nil
}
