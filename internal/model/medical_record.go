package model

import "time"

// MedicalRecord is a denormalised snapshot of one prediction request: the
// raw input features plus what the model said about them.  Records are only
// ever appended.
type MedicalRecord struct {
	ID              uint64    `json:"id" gorm:"primaryKey;autoIncrement"`
	Gender          string    `json:"gender" gorm:"size:20"`
	Age             float64   `json:"age"`
	Hypertension    int       `json:"hypertension"`
	HeartDisease    int       `json:"heart_disease"`
	EverMarried     string    `json:"ever_married" gorm:"size:20"`
	WorkType        string    `json:"work_type" gorm:"size:50"`
	ResidenceType   string    `json:"Residence_type" gorm:"column:residence_type;size:50"`
	AvgGlucoseLevel float64   `json:"avg_glucose_level"`
	BMI             float64   `json:"bmi" gorm:"column:bmi"`
	SmokingStatus   string    `json:"smoking_status" gorm:"size:50"`
	StrokeRisk      string    `json:"stroke_risk" gorm:"size:50"`
	Prediction      string    `json:"prediction" gorm:"size:50"`
	Probability     float64   `json:"probability"`
	CreatedAt       time.Time `json:"created_at"`
}

// TableName returns the database table name for the MedicalRecord model.
func (MedicalRecord) TableName() string {
	return "medical_records"
}
