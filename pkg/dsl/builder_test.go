package dsl_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tmarche/fabula"
	"github.com/tmarche/fabula/pkg/domain"
	"github.com/tmarche/fabula/pkg/dsl"
)

func TestBuilder_SimpleStory(t *testing.T) {
	b := dsl.New("The Lighthouse Keeper")

	b.Node("shore").
		Text("The lighthouse stands dark against the storm.").
		Choice("Climb to the lamp room", "lamp").
		Choice("Search the beach", "beach")

	b.Node("beach").
		Text("A brass lantern lies half-buried in the sand.").
		Choice("Take the lantern", "shore", dsl.Effect("lantern", true)).
		Choice("Leave it", "shore")

	b.Node("lamp").
		Text("The great lens waits for a flame.").
		Choice("Light the lamp", "lit", dsl.Require("lantern", true)).
		Choice("Climb back down", "shore")

	b.Node("lit").
		Text("The beam sweeps out across the water.")

	story, err := b.Build()
	require.NoError(t, err)

	assert.Equal(t, "The Lighthouse Keeper", story.Title)
	assert.Equal(t, "shore", story.InitialNodeID, "initial node defaults to the first added")

	// Declaration order survives.
	ids := make([]string, 0, len(story.Nodes))
	for _, n := range story.Nodes {
		ids = append(ids, n.ID)
	}
	assert.Equal(t, []string{"shore", "beach", "lamp", "lit"}, ids)

	shore := story.Node("shore")
	require.NotNil(t, shore)
	require.Len(t, shore.Choices, 2)
	assert.Equal(t, "lamp", shore.Choices[0].NextNodeID)

	beach := story.Node("beach")
	require.NotNil(t, beach)
	assert.Equal(t, map[string]any{"lantern": true}, beach.Choices[0].FlagEffects)

	lamp := story.Node("lamp")
	require.NotNil(t, lamp)
	assert.Equal(t, map[string]any{"lantern": true}, lamp.Choices[0].FlagRequirements)

	lit := story.Node("lit")
	require.NotNil(t, lit)
	assert.True(t, lit.IsEnding())
}

func TestBuilder_StartOverride(t *testing.T) {
	b := dsl.New("Cold Open")
	b.Node("prologue").Text("Later.")
	b.Node("scene").Text("Now.").Choice("Flash back", "prologue")
	b.Start("scene")

	story, err := b.Build()
	require.NoError(t, err)
	assert.Equal(t, "scene", story.InitialNodeID)
}

func TestBuilder_ChoiceOptions(t *testing.T) {
	b := dsl.New("Gates")
	b.Node("door").
		Text("A sealed door.").
		Choice("Force it", "inside",
			dsl.When("strong_enough"),
			dsl.Gate(domain.Requirement{Kind: domain.RequireInventoryHas, Item: "crowbar"})).
		Choice("Use the intercom", "inside", dsl.Disabled())
	b.Node("inside").Text("You are in.")

	story, err := b.Build()
	require.NoError(t, err)

	door := story.Node("door")
	require.NotNil(t, door)

	force := door.Choices[0]
	assert.Equal(t, "strong_enough", force.Condition)
	require.Len(t, force.Requirements, 1)
	assert.Equal(t, domain.RequireInventoryHas, force.Requirements[0].Kind)

	intercom := door.Choices[1]
	require.NotNil(t, intercom.Enabled)
	assert.False(t, *intercom.Enabled)
}

func TestBuilder_NodeIsGetOrCreate(t *testing.T) {
	b := dsl.New("Split Definition")
	b.Node("hub").Text("A crossroads.").Choice("North", "hub")
	b.Node("hub").Choice("South", "hub")

	story, err := b.Build()
	require.NoError(t, err)

	hub := story.Node("hub")
	require.NotNil(t, hub)
	assert.Len(t, hub.Choices, 2)
	assert.Equal(t, "A crossroads.", hub.Text)
}

func TestBuilder_EmptyStory(t *testing.T) {
	_, err := dsl.New("Nothing").Build()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no nodes")
}

func TestBuilder_UndefinedStart(t *testing.T) {
	b := dsl.New("Dangling")
	b.Node("only").Text("Alone.")
	b.Start("ghost")

	_, err := b.Build()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ghost")
}

func TestBuilder_StoryPassesEngineValidation(t *testing.T) {
	b := dsl.New("Two Rooms")
	b.Node("hall").Text("A long hall.").Choice("Enter", "vault")
	b.Node("vault").Text("Gold everywhere.")

	story, err := b.Build()
	require.NoError(t, err)

	eng, err := fabula.New(story)
	require.NoError(t, err)
	t.Cleanup(func() { _ = eng.Close() })

	assert.Equal(t, "hall", eng.CurrentNodeID())
}
