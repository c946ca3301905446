package wire

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizePayload(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want string
	}{
		{
			name: "clean input unchanged",
			in:   `{"receiverUpi":"bob@payseva","amount":500}`,
			want: `{"receiverUpi":"bob@payseva","amount":500}`,
		},
		{
			name: "strips non-ascii bytes",
			in:   "{\"amount\":5​00}",
			want: `{"amount":500}`,
		},
		{
			name: "collapses whitespace around delimiters",
			in:   "{ \"a\" :  1 ,\n\t \"b\" : 2 }",
			want: `{"a":1,"b":2}`,
		},
		{
			name: "quotes bare keys",
			in:   `{amount:500,receiverUpi:"bob"}`,
			want: `{"amount":500,"receiverUpi":"bob"}`,
		},
		{
			name: "closes truncated object",
			in:   `{"sender":{"upiId":"alice"},"amount":500`,
			want: `{"sender":{"upiId":"alice"},"amount":500}`,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, NormalizePayload(tc.in))
		})
	}
}

func TestNormalizePayloadRepairedOutputParses(t *testing.T) {
	damaged := "{ sender : { upiId : \"alice@payseva\" } , receiverUpi : \"bob@payseva\" , amount : 500.00 , transactionType : \"DEBIT\""

	cleaned := NormalizePayload(damaged)

	var payload map[string]any
	require.NoError(t, json.Unmarshal([]byte(cleaned), &payload))
	assert.Equal(t, "bob@payseva", payload["receiverUpi"])
	assert.Equal(t, "DEBIT", payload["transactionType"])
}
