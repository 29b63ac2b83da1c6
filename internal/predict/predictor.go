// Package predict maps a raw stroke-risk feature payload onto the encoding a
// trained model expects and turns the model output into a risk label.
package predict

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/iliyamo/hospital-portal/internal/model"
)

// RequiredFeatures are the keys every prediction payload must carry.
var RequiredFeatures = []string{
	"gender", "age", "hypertension", "heart_disease",
	"ever_married", "work_type", "Residence_type",
	"avg_glucose_level", "bmi", "smoking_status",
}

// categorical features are encoded through a lookup table; the rest are
// parsed as numbers.
var categorical = map[string]bool{
	"gender":         true,
	"ever_married":   true,
	"work_type":      true,
	"Residence_type": true,
	"smoking_status": true,
}

// Encodings maps each categorical feature to its value -> code table.
type Encodings map[string]map[string]float64

// LoadEncodings reads the lookup tables from path and checks every
// categorical feature has one.
func LoadEncodings(path string) (Encodings, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var enc Encodings
	if err := json.Unmarshal(b, &enc); err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	for f := range categorical {
		if len(enc[f]) == 0 {
			return nil, fmt.Errorf("%s: no lookup table for %q", path, f)
		}
	}
	return enc, nil
}

// Result is one prediction.
type Result struct {
	Risk        string // "High" or "Low"
	Prediction  int    // raw class label
	Probability float64
	Input       Input
}

// Input is the validated, still unencoded payload.
type Input struct {
	Gender          string
	Age             float64
	Hypertension    float64
	HeartDisease    float64
	EverMarried     string
	WorkType        string
	ResidenceType   string
	AvgGlucoseLevel float64
	BMI             float64
	SmokingStatus   string
}

// Record converts r into the MedicalRecord persisted for it.
func (r Result) Record() model.MedicalRecord {
	in := r.Input
	return model.MedicalRecord{
		Gender:          in.Gender,
		Age:             in.Age,
		Hypertension:    int(in.Hypertension),
		HeartDisease:    int(in.HeartDisease),
		EverMarried:     in.EverMarried,
		WorkType:        in.WorkType,
		ResidenceType:   in.ResidenceType,
		AvgGlucoseLevel: in.AvgGlucoseLevel,
		BMI:             in.BMI,
		SmokingStatus:   in.SmokingStatus,
		StrokeRisk:      r.Risk,
		Prediction:      strconv.Itoa(r.Prediction),
		Probability:     r.Probability,
	}
}

// Predictor is the boundary between HTTP payloads and the model.  It is
// read-only after construction and safe for concurrent use.
type Predictor struct {
	enc   Encodings
	model Model
}

// New builds a Predictor from already loaded parts.
func New(enc Encodings, m Model) *Predictor { return &Predictor{enc: enc, model: m} }

// Load reads encodings.json and model.json from dir.
func Load(dir string) (*Predictor, error) {
	enc, err := LoadEncodings(filepath.Join(dir, "encodings.json"))
	if err != nil {
		return nil, err
	}
	m, err := LoadLogisticModel(filepath.Join(dir, "model.json"))
	if err != nil {
		return nil, err
	}
	return New(enc, m), nil
}

// Predict validates data, encodes it and runs the model.  Missing keys yield
// a *MissingFeaturesError and values absent from a lookup table a
// *UnmappedCategoryError; nothing is defaulted silently.
func (p *Predictor) Predict(data map[string]interface{}) (Result, error) {
	var missing []string
	for _, f := range RequiredFeatures {
		if v, ok := data[f]; !ok || v == nil {
			missing = append(missing, f)
		}
	}
	if len(missing) > 0 {
		return Result{}, &MissingFeaturesError{Missing: missing}
	}

	encoded := make(map[string]float64, len(RequiredFeatures))
	var unmapped []string
	for _, f := range RequiredFeatures {
		if categorical[f] {
			code, ok := p.enc[f][categoryString(data[f])]
			if !ok {
				unmapped = append(unmapped, f)
				continue
			}
			encoded[f] = code
			continue
		}
		n, err := toFloat(data[f])
		if err == nil && (math.IsNaN(n) || math.IsInf(n, 0)) {
			err = errors.New("not a finite number")
		}
		if err != nil {
			return Result{}, fmt.Errorf("%w: %s: %v", ErrInvalidFeature, f, err)
		}
		encoded[f] = n
	}
	if len(unmapped) > 0 {
		sort.Strings(unmapped)
		return Result{}, &UnmappedCategoryError{Columns: unmapped}
	}

	names := p.model.Features()
	x := make([]float64, len(names))
	var absent []string
	for i, name := range names {
		v, ok := encoded[name]
		if !ok {
			absent = append(absent, name)
			continue
		}
		x[i] = v
	}
	if len(absent) > 0 {
		return Result{}, fmt.Errorf("%w: input does not provide model features %s", ErrModel, strings.Join(absent, ", "))
	}

	label, raw, err := p.model.Predict(x)
	if err != nil {
		return Result{}, fmt.Errorf("%w: %v", ErrModel, err)
	}
	risk := "Low"
	if label == 1 {
		risk = "High"
	}
	return Result{
		Risk:        risk,
		Prediction:  label,
		Probability: raw,
		Input: Input{
			Gender:          categoryString(data["gender"]),
			Age:             encoded["age"],
			Hypertension:    encoded["hypertension"],
			HeartDisease:    encoded["heart_disease"],
			EverMarried:     categoryString(data["ever_married"]),
			WorkType:        categoryString(data["work_type"]),
			ResidenceType:   categoryString(data["Residence_type"]),
			AvgGlucoseLevel: encoded["avg_glucose_level"],
			BMI:             encoded["bmi"],
			SmokingStatus:   categoryString(data["smoking_status"]),
		},
	}, nil
}

func categoryString(v interface{}) string {
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprint(v)
}

// toFloat accepts JSON numbers, numeric strings and booleans.
func toFloat(v interface{}) (float64, error) {
	switch t := v.(type) {
	case float64:
		return t, nil
	case json.Number:
		return t.Float64()
	case int:
		return float64(t), nil
	case bool:
		if t {
			return 1, nil
		}
		return 0, nil
	case string:
		return strconv.ParseFloat(strings.TrimSpace(t), 64)
	}
	return 0, fmt.Errorf("unsupported type %T", v)
}
