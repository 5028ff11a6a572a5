package client_test

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/satishbabariya/sqlstudio/runtime/client"
)

func TestRecordPreservesOrder(t *testing.T) {
	var r client.Record
	require.NoError(t, json.Unmarshal([]byte(`{"RunID": 7, "Status": "ok", "AgentID": null, "Score": 1.5}`), &r))

	assert.Equal(t, []string{"RunID", "Status", "AgentID", "Score"}, r.Keys())
	first, ok := r.First()
	require.True(t, ok)
	assert.Equal(t, "RunID", first.Name)
	assert.Equal(t, json.Number("7"), first.Value)

	v, ok := r.Get("AgentID")
	assert.True(t, ok)
	assert.Nil(t, v)

	data, err := json.Marshal(r)
	require.NoError(t, err)
	assert.JSONEq(t, `{"RunID":7,"Status":"ok","AgentID":null,"Score":1.5}`, string(data))
	assert.Equal(t, `{"RunID":7,"Status":"ok","AgentID":null,"Score":1.5}`, string(data))
}

func TestRecordSetAndDelete(t *testing.T) {
	r := client.RecordOf("b", 1, "a", 2)
	r.Set("b", 3)
	r.Set("c", 4)
	assert.Equal(t, []string{"b", "a", "c"}, r.Keys())
	assert.Equal(t, map[string]any{"b": 3, "a": 2, "c": 4}, r.Map())

	r.Delete("a")
	assert.Equal(t, []string{"b", "c"}, r.Keys())
	assert.Equal(t, 2, r.Len())
}

func TestRecordClone(t *testing.T) {
	r := client.RecordOf("id", 1)
	c := r.Clone()
	c.Set("id", 2)

	v, _ := r.Get("id")
	assert.Equal(t, 1, v)
}

func TestRecordUnmarshalErrors(t *testing.T) {
	var r client.Record
	assert.Error(t, json.Unmarshal([]byte(`[1,2]`), &r))
	assert.Error(t, json.Unmarshal([]byte(`"x"`), &r))

	require.NoError(t, json.Unmarshal([]byte(`null`), &r))
	assert.Equal(t, 0, r.Len())
}

func TestEmptyRecordMarshal(t *testing.T) {
	data, err := json.Marshal(client.Record{})
	require.NoError(t, err)
	assert.Equal(t, "{}", string(data))
}

func TestRecordOfPanics(t *testing.T) {
	assert.Panics(t, func() { client.RecordOf("a") })
	assert.Panics(t, func() { client.RecordOf(1, 2) })
}
