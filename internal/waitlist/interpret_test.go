package waitlist

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestInterpret(t *testing.T) {
	t.Parallel()

	yes, no := true, false
	tests := []struct {
		name string
		body string
		want SubmissionOutcome
	}{
		{
			name: "explicit status true",
			body: `{"status": true, "message": "ok"}`,
			want: SubmissionOutcome{Success: true, APIStatus: &yes, Message: "ok"},
		},
		{
			name: "explicit status false keeps message",
			body: `{"status": false, "message": "already subscribed"}`,
			want: SubmissionOutcome{Success: false, APIStatus: &no, Message: "already subscribed"},
		},
		{
			name: "status without message",
			body: `{"status": true}`,
			want: SubmissionOutcome{Success: true, APIStatus: &yes, Message: MsgOperationDone},
		},
		{
			name: "non boolean status is not success",
			body: `{"status": "ok", "message": "queued"}`,
			want: SubmissionOutcome{Success: false, APIStatus: nil, Message: "queued"},
		},
		{
			name: "null status counts as present",
			body: `{"status": null, "success": true}`,
			want: SubmissionOutcome{Success: false, APIStatus: nil, Message: MsgOperationDone},
		},
		{
			name: "success false",
			body: `{"success": false}`,
			want: SubmissionOutcome{Success: false, APIStatus: &no, Message: MsgOperationDone},
		},
		{
			name: "truthy non boolean success",
			body: `{"success": 1, "message": "fine"}`,
			want: SubmissionOutcome{Success: true, APIStatus: nil, Message: "fine"},
		},
		{
			name: "message only",
			body: `{"message": "hi"}`,
			want: SubmissionOutcome{Success: true, APIStatus: &no, Message: "hi"},
		},
		{
			name: "empty message falls through to default",
			body: `{"message": ""}`,
			want: SubmissionOutcome{Success: true, APIStatus: &no, Message: MsgSubscribed},
		},
		{
			name: "numeric message",
			body: `{"message": 42}`,
			want: SubmissionOutcome{Success: true, APIStatus: &no, Message: "42"},
		},
		{
			name: "empty object",
			body: `{}`,
			want: SubmissionOutcome{Success: true, APIStatus: &no, Message: MsgSubscribed},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			var raw RawResponse
			require.NoError(t, json.Unmarshal([]byte(tt.body), &raw))
			require.Equal(t, tt.want, Interpret(raw))
		})
	}
}

func TestInterpretNilResponse(t *testing.T) {
	t.Parallel()

	got := Interpret(nil)
	require.True(t, got.Success)
	require.False(t, got.Confirmed())
	require.Equal(t, MsgSubscribed, got.Message)
}

func TestInterpretAlwaysCarriesMessage(t *testing.T) {
	t.Parallel()

	bodies := []string{
		`{}`,
		`{"status": true, "message": ""}`,
		`{"status": false, "message": null}`,
		`{"status": "yes", "message": 0}`,
		`{"success": true, "message": false}`,
		`{"success": 0}`,
		`{"message": ""}`,
		`{"message": {}}`,
		`{"message": []}`,
	}
	for _, body := range bodies {
		var raw RawResponse
		require.NoError(t, json.Unmarshal([]byte(body), &raw))
		require.NotEmpty(t, Interpret(raw).Message, body)
	}
}

func TestOutcomeConfirmed(t *testing.T) {
	t.Parallel()

	yes, no := true, false
	require.True(t, SubmissionOutcome{APIStatus: &yes}.Confirmed())
	require.False(t, SubmissionOutcome{APIStatus: &no}.Confirmed())
	require.False(t, SubmissionOutcome{}.Confirmed())
}
