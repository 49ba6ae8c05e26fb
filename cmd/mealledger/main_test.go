package main

import (
	"bytes"
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"github.com/xraph/mealledger"
)

func TestRun(t *testing.T) {
	cfgPath := filepath.Join(t.TempDir(), "none.yaml")
	ctx := context.Background()

	tests := []struct {
		name    string
		args    []string
		want    string
		wantErr func(error) bool
	}{
		{name: "migrate", args: []string{"migrate"}},
		{name: "pending table", args: []string{"pending"}, want: "CUSTOMER"},
		{name: "pending json", args: []string{"pending", "-json", "cust_1"}, want: "[]"},
		{name: "no command", args: nil, wantErr: func(err error) bool { return errors.Is(err, errUsage) }},
		{name: "unknown command", args: []string{"punch"}, wantErr: func(err error) bool { return errors.Is(err, errUsage) }},
		{name: "current missing", args: []string{"current", "cust_1"}, wantErr: mealledger.IsNotFound},
		{name: "history bad id", args: []string{"history", "nope"}, wantErr: func(err error) bool { return err != nil }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out bytes.Buffer
			err := run(ctx, append([]string{"-config", cfgPath}, tt.args...), &out)
			if tt.wantErr != nil {
				if !tt.wantErr(err) {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if err != nil {
				t.Fatal(err)
			}
			if !strings.Contains(out.String(), tt.want) {
				t.Errorf("output %q does not contain %q", out.String(), tt.want)
			}
		})
	}
}
