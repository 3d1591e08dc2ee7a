package normalize

import (
	"testing"

	"github.com/opsboard/otpgate/model"
	"github.com/stretchr/testify/require"
)

func TestNormalize(t *testing.T) {
	for scenario, fn := range map[string]func(t *testing.T){
		"test success with data":                testSuccessWithData,
		"test success flag only":                testSuccessFlagOnly,
		"test pending ref wrapped in data":      testPendingRefWrapped,
		"test pending ref at top level":         testPendingRefTopLevel,
		"test pending ref wins over success":    testPendingWinsOverSuccess,
		"test field error map":                  testFieldErrorMap,
		"test field error map wins over string": testFieldMapWinsOverString,
		"test empty field error map":            testEmptyFieldErrorMap,
		"test flat error string":                testFlatErrorString,
		"test flat message string":              testFlatMessageString,
		"test unrecognized shapes":              testUnrecognizedShapes,
	} {
		t.Run(scenario, fn)
	}
}

func testSuccessWithData(t *testing.T) {
	outcome := Normalize(map[string]any{"type": "success", "data": map[string]any{"id": "x"}})
	require.Equal(t, model.OUTCOME_APPLIED, outcome.Kind)
	require.Equal(t, "x", outcome.Result["id"])
}

func testSuccessFlagOnly(t *testing.T) {
	outcome := Normalize(map[string]any{"success": true})
	require.Equal(t, model.OUTCOME_APPLIED, outcome.Kind)
	require.Nil(t, outcome.Result)

	outcome = Normalize(map[string]any{"type": "success"})
	require.Equal(t, model.OUTCOME_APPLIED, outcome.Kind)
}

func testPendingRefWrapped(t *testing.T) {
	outcome := Normalize(map[string]any{
		"type": "success",
		"data": map[string]any{"pendingChangeId": "pc1", "message": "code envoyé"},
	})
	require.Equal(t, model.OUTCOME_PENDING_CONFIRMATION, outcome.Kind)
	require.Equal(t, "pc1", outcome.ChallengeRef)
	require.Equal(t, "code envoyé", outcome.Message)
}

func testPendingRefTopLevel(t *testing.T) {
	outcome := Normalize(map[string]any{"pendingChangeId": "pc2"})
	require.Equal(t, model.OUTCOME_PENDING_CONFIRMATION, outcome.Kind)
	require.Equal(t, "pc2", outcome.ChallengeRef)
}

func testPendingWinsOverSuccess(t *testing.T) {
	outcome := Normalize(map[string]any{"success": true, "pendingChangeId": "pc3"})
	require.Equal(t, model.OUTCOME_PENDING_CONFIRMATION, outcome.Kind)
	require.Equal(t, "pc3", outcome.ChallengeRef)
}

func testFieldErrorMap(t *testing.T) {
	outcome := Normalize(map[string]any{
		"errors": map[string]any{"email": []any{"invalide"}},
	})
	require.Equal(t, model.OUTCOME_FAILED, outcome.Kind)
	require.Equal(t, []string{"invalide"}, outcome.FieldErrors["email"])
	require.Equal(t, "invalide", outcome.Reason)
}

func testFieldMapWinsOverString(t *testing.T) {
	outcome := Normalize(map[string]any{
		"error":  "bad request",
		"errors": map[string]any{"phone": "format invalide"},
	})
	require.Equal(t, model.OUTCOME_FAILED, outcome.Kind)
	require.Equal(t, []string{"format invalide"}, outcome.FieldErrors["phone"])
	require.Equal(t, "format invalide", outcome.Reason)
}

func testEmptyFieldErrorMap(t *testing.T) {
	outcome := Normalize(map[string]any{"errors": map[string]any{}})
	require.Equal(t, model.OUTCOME_FAILED, outcome.Kind)
	require.NotNil(t, outcome.FieldErrors)
	require.Equal(t, GenericFailureReason, outcome.Reason)
}

func testFlatErrorString(t *testing.T) {
	outcome := Normalize(map[string]any{"success": false, "error": "Code invalide"})
	require.Equal(t, model.OUTCOME_FAILED, outcome.Kind)
	require.Equal(t, "Code invalide", outcome.Reason)
	require.Nil(t, outcome.FieldErrors)
}

func testFlatMessageString(t *testing.T) {
	outcome := Normalize(map[string]any{"message": "accès refusé"})
	require.Equal(t, model.OUTCOME_FAILED, outcome.Kind)
	require.Equal(t, "accès refusé", outcome.Reason)
}

func testUnrecognizedShapes(t *testing.T) {
	for _, raw := range []any{
		nil,
		"not json",
		42,
		[]any{"a", "b"},
		map[string]any{},
		map[string]any{"type": "partial"},
		map[string]any{"errors": []any{"not a map"}},
		map[string]any{"pendingChangeId": 17},
	} {
		outcome := Normalize(raw)
		require.Equal(t, model.OUTCOME_FAILED, outcome.Kind)
		require.NotEmpty(t, outcome.Reason)
	}
}
