package ml

// OutcomeColumn is the binary label column of the clinical records dataset.
const OutcomeColumn = "DEATH_EVENT"

type ClinicalFeatures struct {
	Age                     float64 `json:"age"`
	Anaemia                 float64 `json:"anaemia"`
	CreatininePhosphokinase float64 `json:"creatinine_phosphokinase"`
	Diabetes                float64 `json:"diabetes"`
	EjectionFraction        float64 `json:"ejection_fraction"`
	HighBloodPressure       float64 `json:"high_blood_pressure"`
	Platelets               float64 `json:"platelets"`
	SerumCreatinine         float64 `json:"serum_creatinine"`
	SerumSodium             float64 `json:"serum_sodium"`
	Sex                     float64 `json:"sex"`
	Smoking                 float64 `json:"smoking"`
}

// FeatureVector must stay in the same order as FeatureNames.
func FeatureVector(feature ClinicalFeatures) []float64 {
	return []float64{
		feature.Age,
		feature.Anaemia,
		feature.CreatininePhosphokinase,
		feature.Diabetes,
		feature.EjectionFraction,
		feature.HighBloodPressure,
		feature.Platelets,
		feature.SerumCreatinine,
		feature.SerumSodium,
		feature.Sex,
		feature.Smoking,
	}
}

func FeatureNames() []string {
	return []string{
		"age",
		"anaemia",
		"creatinine_phosphokinase",
		"diabetes",
		"ejection_fraction",
		"high_blood_pressure",
		"platelets",
		"serum_creatinine",
		"serum_sodium",
		"sex",
		"smoking",
	}
}

// BinaryFeatureNames lists the columns encoded as 0/1.
func BinaryFeatureNames() []string {
	return []string{"anaemia", "diabetes", "high_blood_pressure", "sex", "smoking"}
}

// FeaturesFromVector is the inverse of FeatureVector.
func FeaturesFromVector(values []float64) (ClinicalFeatures, error) {
	if len(values) != len(FeatureNames()) {
		return ClinicalFeatures{}, ErrFeatureCount
	}
	return ClinicalFeatures{
		Age:                     values[0],
		Anaemia:                 values[1],
		CreatininePhosphokinase: values[2],
		Diabetes:                values[3],
		EjectionFraction:        values[4],
		HighBloodPressure:       values[5],
		Platelets:               values[6],
		SerumCreatinine:         values[7],
		SerumSodium:             values[8],
		Sex:                     values[9],
		Smoking:                 values[10],
	}, nil
}
