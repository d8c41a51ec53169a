package comparator

import (
	"testing"

	"github.com/chaoslab/control-plane/pkg/cerrors"
)

func TestCompareFloat(t *testing.T) {
	tests := []struct {
		name     string
		a        float64
		b        float64
		operator string
		wantErr  bool
	}{
		{name: "greater pass", a: 10, b: 5, operator: ">", wantErr: false},
		{name: "greater fail on equal", a: 5, b: 5, operator: ">", wantErr: true},
		{name: "greater or equal pass on equal", a: 5, b: 5, operator: ">=", wantErr: false},
		{name: "greater or equal fail", a: 4, b: 5, operator: ">=", wantErr: true},
		{name: "lesser pass", a: 3, b: 5, operator: "<", wantErr: false},
		{name: "lesser fail on equal", a: 5, b: 5, operator: "<", wantErr: true},
		{name: "lesser or equal pass on equal", a: 5, b: 5, operator: "<=", wantErr: false},
		{name: "lesser or equal fail", a: 6, b: 5, operator: "<=", wantErr: true},
		{name: "equal pass", a: 5, b: 5, operator: "==", wantErr: false},
		{name: "equal fail", a: 5.1, b: 5, operator: "==", wantErr: true},
		{name: "not equal pass", a: 5.1, b: 5, operator: "!=", wantErr: false},
		{name: "not equal fail", a: 5, b: 5, operator: "!=", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := FirstValue(tt.a).SecondValue(tt.b).Criteria(tt.operator).CompareFloat(cerrors.ErrorTypeSloEvaluation)
			if tt.wantErr && err == nil {
				t.Errorf("expected %v %v %v to fail", tt.a, tt.operator, tt.b)
			}
			if !tt.wantErr && err != nil {
				t.Errorf("expected %v %v %v to pass, got %v", tt.a, tt.operator, tt.b, err)
			}
		})
	}
}

func TestCompareFloat_UnknownCriteriaIsError(t *testing.T) {
	err := FirstValue(1).SecondValue(2).Criteria("~=").Target("latency_p95").CompareFloat(cerrors.ErrorTypeSloEvaluation)
	if err == nil {
		t.Fatal("an unrecognized criteria must not pass silently")
	}
	if cerrors.GetErrorType(err) != cerrors.ErrorTypeSloEvaluation {
		t.Errorf("expected the given error code, got %v", cerrors.GetErrorType(err))
	}
}
