package logging

import (
	"encoding/json"
	"testing"

	"go.viam.com/test"
)

func TestLevelRoundTripsThroughString(t *testing.T) {
	for _, lvl := range []Level{DEBUG, INFO, WARN, ERROR} {
		parsed, err := LevelFromString(lvl.String())
		test.That(t, err, test.ShouldBeNil)
		test.That(t, parsed, test.ShouldEqual, lvl)
	}
}

func TestLevelFromStringAcceptsWarningSynonym(t *testing.T) {
	parsed, err := LevelFromString("warning")
	test.That(t, err, test.ShouldBeNil)
	test.That(t, parsed, test.ShouldEqual, WARN)
}

func TestLevelFromStringRejectsUnknown(t *testing.T) {
	_, err := LevelFromString("verbose")
	test.That(t, err, test.ShouldNotBeNil)
}

func TestLevelJSONRoundTrip(t *testing.T) {
	type params struct {
		Algo  Level
		Graph Level
	}
	original := params{Algo: DEBUG, Graph: WARN}

	data, err := json.Marshal(original)
	test.That(t, err, test.ShouldBeNil)

	var roundTripped params
	test.That(t, json.Unmarshal(data, &roundTripped), test.ShouldBeNil)
	test.That(t, roundTripped, test.ShouldResemble, original)
}

func TestLevelJSONRejectsMalformedInput(t *testing.T) {
	var lvl Level
	test.That(t, json.Unmarshal([]byte(`{}`), &lvl), test.ShouldNotBeNil)
	test.That(t, json.Unmarshal([]byte(`"not-a-level"`), &lvl), test.ShouldNotBeNil)
}
