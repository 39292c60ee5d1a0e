package ui

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/muurk/raincloud/raincloud"
)

func sampleReports() []raincloud.ControllerReport {
	return []raincloud.ControllerReport{{
		Serial:      "ABCDEFGH",
		Name:        "Controller001",
		Status:      "Online",
		CurrentTime: "02:00 AM",
		Faucets: []raincloud.FaucetReport{{
			Serial:  "1234",
			Name:    "Faucet001",
			Status:  "Offline",
			Battery: "85",
			Zones: []raincloud.ZoneReport{
				{ID: 1, Name: "Roses"},
				{ID: 2, Name: "Lawn", IsWatering: true, WateringTime: 15, AutoWatering: true},
				{ID: 4, Name: "Hedge", RainDelay: 4},
			},
		}},
	}}
}

func TestRenderTree(t *testing.T) {
	out := RenderTree(sampleReports(), nil)

	for _, want := range []string{
		"Controller001", "ABCDEFGH", "02:00 AM",
		"└─ ", "Faucet001", "battery 85%", "Offline",
		"Roses", "idle",
		"watering 15m", "auto",
		"rain delay 4 days",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("RenderTree() missing %q in:\n%s", want, out)
		}
	}
}

func TestRenderTreeNicknames(t *testing.T) {
	nicks := Nicknames(func(serial string) string {
		if serial == "1234" {
			return "Back tap"
		}
		return ""
	})

	out := RenderTree(sampleReports(), nicks)
	if !strings.Contains(out, "Back tap (Faucet001)") {
		t.Errorf("RenderTree() should show the nickname, got:\n%s", out)
	}
	if strings.Contains(out, "(Controller001)") {
		t.Error("controller without nickname should keep its plain name")
	}
}

func TestRenderLabeledTree(t *testing.T) {
	labels := ZoneLabels(func(faucet string, zone int) string {
		if faucet == "1234" && zone == 2 {
			return "🌱 Lawn sprinkler"
		}
		return ""
	})

	out := RenderLabeledTree(sampleReports(), nil, labels)
	if !strings.Contains(out, "[🌱 Lawn sprinkler]") {
		t.Errorf("RenderLabeledTree() missing label in:\n%s", out)
	}
	if strings.Count(out, "[") != 1 {
		t.Errorf("only zone 2 should carry a label:\n%s", out)
	}
}

func TestResultDetailsSorted(t *testing.T) {
	out := NewSuccessResult("Renamed", map[string]string{"Zone": "2", "Faucet": "1234", "Name": "Lawn"}).
		SetWidth(80).
		Render()

	faucet := strings.Index(out, "Faucet:")
	name := strings.Index(out, "Name:")
	zone := strings.Index(out, "Zone:")
	if faucet < 0 || name < 0 || zone < 0 {
		t.Fatalf("Render() missing details:\n%s", out)
	}
	if !(faucet < name && name < zone) {
		t.Errorf("details should be sorted by key:\n%s", out)
	}
}

func TestPortalFailureTips(t *testing.T) {
	r := NewPortalFailure("Login failed", raincloud.NewAuthError(200, "login rejected"))

	if len(r.Troubleshooting) != 3 {
		t.Fatalf("Troubleshooting = %v, want 3 tips", r.Troubleshooting)
	}
	if !strings.Contains(r.Troubleshooting[1], "RAINCLOUD_PASSWORD") {
		t.Errorf("tip 2 = %q", r.Troubleshooting[1])
	}

	out := r.SetWidth(80).Render()
	if !strings.Contains(out, "Authentication failed") {
		t.Errorf("Render() should show the short message, got:\n%s", out)
	}
}

func TestHintTipsWithoutBullets(t *testing.T) {
	tips := hintTips("Try again later.")
	if len(tips) != 1 || tips[0] != "Try again later." {
		t.Errorf("hintTips() = %v", tips)
	}
	if hintTips("") != nil {
		t.Error("empty hint should yield no tips")
	}
	if got := NewPortalFailure("x", errors.New("plain")).Troubleshooting; len(got) != 1 {
		t.Errorf("plain error tips = %v", got)
	}
}

func TestConfirm(t *testing.T) {
	tests := []struct {
		input string
		want  bool
	}{
		{"y\n", true},
		{"YES\n", true},
		{"n\n", false},
		{"\n", false},
		{"", false},
		{"yes", true},
	}

	for _, tt := range tests {
		var out bytes.Buffer
		got := Confirm(strings.NewReader(tt.input), &out, "TEST", []string{"something happens"}, "Continue?")
		if got != tt.want {
			t.Errorf("Confirm(%q) = %v, want %v", tt.input, got, tt.want)
		}
		if !strings.Contains(out.String(), "Continue? [y/N]") {
			t.Errorf("Confirm(%q) should print the question", tt.input)
		}
	}
}

func TestHeaderParamsInOrder(t *testing.T) {
	out := NewHeader("Zone watering", "raincloud zone watering",
		Param{Key: "Faucet", Value: "1234"},
		Param{Key: "Zone", Value: "2"},
	).SetWidth(80).Render()

	if !strings.Contains(out, "ZONE WATERING") {
		t.Errorf("title should be upper-cased:\n%s", out)
	}
	if strings.Index(out, "Faucet:") > strings.Index(out, "Zone:") {
		t.Errorf("params should keep their order:\n%s", out)
	}
}
