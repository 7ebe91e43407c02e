package ml

import "fmt"

const (
	ChoiceYes    = "Yes"
	ChoiceNo     = "No"
	ChoiceFemale = "Female"
	ChoiceMale   = "Male"
)

func EncodeYesNo(choice string) (float64, error) {
	switch choice {
	case ChoiceYes:
		return 1, nil
	case ChoiceNo:
		return 0, nil
	default:
		return 0, fmt.Errorf("invalid choice %q: want %s or %s", choice, ChoiceYes, ChoiceNo)
	}
}

func EncodeSex(choice string) (float64, error) {
	switch choice {
	case ChoiceFemale:
		return 1, nil
	case ChoiceMale:
		return 0, nil
	default:
		return 0, fmt.Errorf("invalid choice %q: want %s or %s", choice, ChoiceFemale, ChoiceMale)
	}
}

func DecodeYesNo(value float64) string {
	if value == 1 {
		return ChoiceYes
	}
	return ChoiceNo
}

func DecodeSex(value float64) string {
	if value == 1 {
		return ChoiceFemale
	}
	return ChoiceMale
}
