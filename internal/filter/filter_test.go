package filter

import "testing"

func TestParseTokens(t *testing.T) {
	tests := []struct {
		name     string
		raw      string
		wantIDs  []string
		resource string
	}{
		{"empty", "", nil, ""},
		{"single tag", "env:prod", []string{"env:prod"}, ""},
		{"tag list", "env:prod,staging", []string{"env:prod", "env:staging"}, ""},
		{"resource", "resource:aws_ec2", []string{"resource:aws_ec2"}, "aws_ec2"},
		{"namespaced tag key", "aws:cloudformation:stack-name:web", []string{"aws:cloudformation:stack-name:web"}, ""},
		{"skips malformed", "novalue;:x;env:;;team:core", []string{"team:core"}, ""},
		{"blank values skipped", "env:prod,,", []string{"env:prod"}, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, resource := ParseTokens(tt.raw)
			if resource != tt.resource {
				t.Fatalf("resource = %q, want %q", resource, tt.resource)
			}
			if len(got) != len(tt.wantIDs) {
				t.Fatalf("ParseTokens(%q) = %v, want ids %v", tt.raw, got, tt.wantIDs)
			}
			for i, id := range tt.wantIDs {
				if got[i].ID != id {
					t.Fatalf("filter %d id = %q, want %q", i, got[i].ID, id)
				}
			}
		})
	}
}

func TestParseTokens_NamespacedKeySplitsOnLastColon(t *testing.T) {
	got, _ := ParseTokens("aws:cloudformation:stack-name:web")
	if len(got) != 1 || got[0].Key != "aws:cloudformation:stack-name" || got[0].Value != "web" {
		t.Fatalf("ParseTokens = %+v, want key aws:cloudformation:stack-name value web", got)
	}
}

func TestFormatTokens_GroupsByKeyInFirstSeenOrder(t *testing.T) {
	filters := []Filter{
		Resource("aws_ec2"),
		Tag("env", "prod"),
		Account("111", "main"),
		Tag("team", "core"),
		Tag("env", "staging"),
		Incomplete("owner"),
	}
	got := FormatTokens(filters)
	want := "resource:aws_ec2;env:prod,staging;account:111;team:core"
	if got != want {
		t.Fatalf("FormatTokens = %q, want %q", got, want)
	}

	parsed, resource := ParseTokens(got)
	if resource != "aws_ec2" || len(parsed) != 5 {
		t.Fatalf("ParseTokens(FormatTokens) = %v, %q", parsed, resource)
	}
}

func TestQueryParams(t *testing.T) {
	params := QueryParams([]Filter{
		Resource("aws_ec2"),
		Tag("env", "prod"),
		Tag("env", "staging"),
		Tag("team", "core"),
		Account("111", ""),
		Account("222", ""),
		Incomplete("owner"),
	})

	if got := params.Get("filter_Data.Tag.env"); got != "prod,staging" {
		t.Fatalf("env param = %q, want prod,staging", got)
	}
	if got := params.Get("filter_Data.Tag.team"); got != "core" {
		t.Fatalf("team param = %q, want core", got)
	}
	if got := params.Get("filter_Data.AccountID"); got != "111,222" {
		t.Fatalf("account param = %q, want 111,222", got)
	}
	if len(params) != 3 {
		t.Fatalf("params = %v, want 3 keys", params)
	}
}

func TestKey_IsOrderIndependent(t *testing.T) {
	a := Key([]Filter{Tag("env", "prod"), Tag("team", "core")})
	b := Key([]Filter{Tag("team", "core"), Tag("env", "prod")})
	if a != b {
		t.Fatalf("Key differs by order: %q vs %q", a, b)
	}
	if Key(nil) != "" {
		t.Fatalf("Key(nil) = %q, want empty", Key(nil))
	}
}

func TestAccount_TitleFallsBackToID(t *testing.T) {
	if got := Account("111", "").Title; got != "Account: 111" {
		t.Fatalf("Title = %q, want Account: 111", got)
	}
	if got := Account("111", "main").Title; got != "Account: main" {
		t.Fatalf("Title = %q, want Account: main", got)
	}
}
