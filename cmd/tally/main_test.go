package main

import (
	"bytes"
	"strings"
	"testing"

	"github.com/five82/tally/internal/filter"
)

func execute(t *testing.T, args ...string) string {
	t.Helper()
	t.Cleanup(resetFlags)
	root := newRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	if err := root.Execute(); err != nil {
		t.Fatalf("execute %v: %v", args, err)
	}
	return out.String()
}

func resetFlags() {
	flagView = ""
	repFlags = reportFlags{}
	urlFlags.execution, urlFlags.filters, urlFlags.resource = "", "", ""
}

func TestURLEncode(t *testing.T) {
	got := execute(t, "url", "encode", "--execution", "E1", "--filters", "env:prod,staging", "--resource", "aws_ec2")
	want := "executionId=E1&filters=resource:aws_ec2;env:prod,staging\n"
	if got != want {
		t.Fatalf("url encode = %q, want %q", got, want)
	}
}

func TestURLDecode(t *testing.T) {
	got := execute(t, "url", "decode", "http://finala:8080/?executionId=E1&filters=resource:aws_ec2;account:1234")
	for _, want := range []string{"execution: E1", "resource:  aws_ec2", "account:1234"} {
		if !strings.Contains(got, want) {
			t.Fatalf("url decode output missing %q:\n%s", want, got)
		}
	}
}

func TestVersion(t *testing.T) {
	if got := execute(t, "version"); !strings.Contains(got, "tally version: dev") {
		t.Fatalf("version output = %q", got)
	}
}

func TestResolveQueryFlagsOverrideView(t *testing.T) {
	t.Cleanup(resetFlags)
	flagView = "executionId=E1&filters=resource:aws_ec2;env:prod"

	q := resolveQuery()
	if q.executionID != "E1" || q.resource != "aws_ec2" {
		t.Fatalf("view query = %+v", q)
	}
	if got := filter.FormatTokens(q.filters); got != "env:prod" {
		t.Fatalf("view filters = %q, want env:prod", got)
	}

	repFlags.execution = "E2"
	repFlags.filters = "team:core"
	q = resolveQuery()
	if q.executionID != "E2" {
		t.Fatalf("executionID = %q, want E2", q.executionID)
	}
	if q.resource != "aws_ec2" {
		t.Fatalf("resource = %q, want aws_ec2 kept from view", q.resource)
	}
	if got := filter.FormatTokens(q.filters); got != "team:core" {
		t.Fatalf("filters = %q, want team:core", got)
	}
}
