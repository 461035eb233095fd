package recordform

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rero/recordform/jsonschema"
)

const contributionSchema = `{
  "type": "object",
  "properties": {
    "agent": {
      "title": "Agent",
      "oneOf": [
        {
          "title": "Person",
          "type": "object",
          "required": ["type", "name"],
          "properties": {
            "type": {"type": "string", "const": "bf:Person"},
            "name": {"type": "string"},
            "date_of_birth": {"type": "string"}
          }
        },
        {
          "title": "Organisation",
          "type": "object",
          "required": ["type", "name"],
          "properties": {
            "type": {"type": "string", "const": "bf:Organisation"},
            "name": {"type": "string"},
            "conference": {"type": "boolean"}
          }
        }
      ]
    }
  }
}`

func childNames(f *Field) []string {
	var out []string
	for _, c := range f.Children() {
		k, _ := c.Key()
		out = append(out, k.Name)
	}
	return out
}

func TestMultischema_FollowsData(t *testing.T) {
	tree := mustBuild(t, contributionSchema, Config{LongMode: true})
	agent := tree.FieldAt("/agent")
	assert.Equal(t, KindMultischema, agent.Kind)
	assert.Equal(t, 0, agent.Variant())
	assert.Equal(t, []string{"type", "name", "date_of_birth"}, childNames(agent))
	assert.False(t, tree.CanHide(agent))

	require.NoError(t, tree.SetModel(map[string]any{
		"agent": map[string]any{"type": "bf:Organisation", "name": "RERO"},
	}))
	assert.Equal(t, 1, agent.Variant())
	assert.Equal(t, []string{"type", "name", "conference"}, childNames(agent))
	assert.True(t, agent.Child("name").Required())
}

func TestMultischema_SelectVariant(t *testing.T) {
	tree := mustBuild(t, contributionSchema, Config{})
	agent := tree.FieldAt("/agent")
	require.NoError(t, tree.SetModel(map[string]any{
		"agent": map[string]any{"type": "bf:Person", "name": "Ann", "date_of_birth": "1970"},
	}))

	require.NoError(t, tree.SelectVariant(agent, 1))
	assert.Equal(t, map[string]any{"type": "bf:Organisation", "name": "Ann"}, agent.Value())
	assert.Equal(t, 1, agent.Variant())
	assert.ErrorIs(t, tree.SelectVariant(agent, 4), ErrIndexOutOfRange)
	assert.ErrorIs(t, tree.SelectVariant(tree.Root(), 0), ErrNotMultischema)
}

func TestKinds_CustomResolverAndCoercion(t *testing.T) {
	kinds := NewKinds().Register(KindResolverFunc(func(n *jsonschema.Node) (Kind, bool) {
		if n.Format == "password" {
			return KindPasswordGenerator, true
		}
		return "", false
	}))
	tree := mustBuild(t, `{
	  "type": "object",
	  "properties": {
	    "secret": {"type": "string", "format": "password"},
	    "active": {"type": "boolean"},
	    "issued": {"type": "string", "format": "date"},
	    "notes": {"type": "string", "widget": {"formlyConfig": {"type": "textarea"}}}
	  }
	}`, Config{Kinds: kinds})

	assert.Equal(t, KindPasswordGenerator, tree.FieldAt("/secret").Kind)
	assert.Equal(t, KindTextarea, tree.FieldAt("/notes").Kind)

	active := tree.FieldAt("/active")
	require.NoError(t, tree.SetValue(active, "true"))
	assert.Equal(t, true, active.Value())

	issued := tree.FieldAt("/issued")
	require.NoError(t, tree.SetValue(issued, time.Date(2024, 3, 9, 15, 0, 0, 0, time.UTC)))
	assert.Equal(t, "2024-03-09", issued.Value())
}

func TestMatchVariant_KeepsCurrentWhenNothingMatches(t *testing.T) {
	tree := mustBuild(t, contributionSchema, Config{})
	agent := tree.FieldAt("/agent")
	assert.Equal(t, 0, matchVariant(agent, map[string]any{"type": "bf:Meeting"}))
	assert.Equal(t, 0, matchVariant(agent, nil))
}
