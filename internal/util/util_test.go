// Copyright (c) 2026 The Watt Authors
// SPDX-License-Identifier: MIT

package util

import (
	"os"
	"path/filepath"
	"testing"
)

func TestExpandUser(t *testing.T) {
	usr, err := os.UserHomeDir()
	if err != nil {
		t.Skip("no home directory available")
	}

	if got := ExpandUser("~"); got != usr {
		t.Errorf("ExpandUser(~) = %q, want %q", got, usr)
	}

	want := filepath.Join(usr, "config.toml")
	if got := ExpandUser(filepath.Join("~", "config.toml")); got != want {
		t.Errorf("ExpandUser(~/config.toml) = %q, want %q", got, want)
	}

	if got := ExpandUser("/etc/watt.toml"); got != "/etc/watt.toml" {
		t.Errorf("ExpandUser on absolute path changed it: %q", got)
	}
}

func TestExists(t *testing.T) {
	dir := t.TempDir()
	present := filepath.Join(dir, "present")
	if err := os.WriteFile(present, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}

	if !Exists(present) {
		t.Error("Exists reported false for a file that exists")
	}
	if Exists(filepath.Join(dir, "missing")) {
		t.Error("Exists reported true for a file that does not exist")
	}
}

func TestStringInList(t *testing.T) {
	list := []string{"powersave", "performance", "schedutil"}
	if !StringInList("performance", list) {
		t.Error("expected \"performance\" to be found in list")
	}
	if StringInList("ondemand", list) {
		t.Error("expected \"ondemand\" not to be found in list")
	}
}
