package filter

import (
	"math/rand"
	"testing"
)

func assertInvariants(t *testing.T, s *Store) {
	t.Helper()
	seen := make(map[string]struct{})
	resources := 0
	for _, f := range s.List() {
		if _, dup := seen[f.ID]; dup {
			t.Fatalf("duplicate id %q in %v", f.ID, s.List())
		}
		seen[f.ID] = struct{}{}
		if f.Type == TypeTagIncomplete {
			t.Fatalf("incomplete filter %q in list", f.ID)
		}
		if f.Type == TypeResource {
			resources++
		}
	}
	if resources > 1 {
		t.Fatalf("found %d resource filters, want at most 1", resources)
	}
	for _, f := range s.Settled() {
		if f.Type == TypeTagIncomplete || f.Type == TypeResource {
			t.Fatalf("settled set contains %v", f)
		}
	}
}

func TestStore_RandomOperationsKeepInvariants(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	candidates := []Filter{
		Resource("aws_ec2"),
		Resource("aws_ebs"),
		Resource("aws_elb"),
		Tag("env", "prod"),
		Tag("env", "staging"),
		Tag("team", "core"),
		Account("1234", "prod-account"),
		Incomplete("env"),
		Incomplete("team"),
	}

	s := NewStore()
	for i := 0; i < 2000; i++ {
		f := candidates[rng.Intn(len(candidates))]
		switch rng.Intn(5) {
		case 0, 1:
			s.Add(f)
		case 2:
			s.Remove(f.ID)
		case 3:
			s.AddIncomplete(f.Key)
		case 4:
			batch := make([]Filter, rng.Intn(6))
			for j := range batch {
				batch[j] = candidates[rng.Intn(len(candidates))]
			}
			s.ReplaceAll(batch)
		}
		assertInvariants(t, s)
	}
}

func TestStore_SecondResourceReplacesFirst(t *testing.T) {
	s := NewStore()
	s.Add(Tag("env", "prod"))
	s.Add(Resource("aws_ebs"))
	s.Add(Resource("aws_elb"))

	var resources []Filter
	for _, f := range s.List() {
		if f.Type == TypeResource {
			resources = append(resources, f)
		}
	}
	if len(resources) != 1 || resources[0].ID != "resource:aws_elb" {
		t.Fatalf("resource filters = %v, want only resource:aws_elb", resources)
	}
	if name, ok := s.Resource(); !ok || name != "aws_elb" {
		t.Fatalf("Resource() = %q, %v; want aws_elb", name, ok)
	}
	if s.Len() != 2 {
		t.Fatalf("Len = %d, want 2", s.Len())
	}
}

func TestStore_SameKeyDifferentValuesAreDistinct(t *testing.T) {
	s := NewStore()
	if !s.Add(Tag("env", "prod")) {
		t.Fatal("Add(env:prod) reported no change")
	}
	key1 := s.SettledKey()
	if !s.Add(Tag("env", "staging")) {
		t.Fatal("Add(env:staging) reported no change")
	}
	key2 := s.SettledKey()
	if s.Add(Tag("env", "staging")) {
		t.Fatal("duplicate Add reported a change")
	}

	settled := s.Settled()
	if len(settled) != 2 || settled[0].ID != "env:prod" || settled[1].ID != "env:staging" {
		t.Fatalf("Settled = %v, want env:prod and env:staging", settled)
	}
	if key1 == key2 || key2 != s.SettledKey() {
		t.Fatalf("settled keys %q, %q should differ once and then stay stable", key1, key2)
	}
}

func TestStore_ResourceDoesNotChangeSettledKey(t *testing.T) {
	s := NewStore(Tag("env", "prod"))
	before := s.SettledKey()
	s.Add(Resource("aws_ec2"))
	if s.SettledKey() != before {
		t.Fatalf("SettledKey changed after resource add: %q -> %q", before, s.SettledKey())
	}
}

func TestStore_IncompleteIsPendingOnly(t *testing.T) {
	s := NewStore(Tag("env", "prod"))
	s.AddIncomplete("team")

	if p, ok := s.Pending(); !ok || p.Type != TypeTagIncomplete || p.Key != "team" {
		t.Fatalf("Pending = %v, %v; want team placeholder", p, ok)
	}
	assertInvariants(t, s)

	s.Add(Tag("team", "core"))
	if _, ok := s.Pending(); ok {
		t.Fatal("placeholder survived a committed add")
	}
	if s.Len() != 2 {
		t.Fatalf("Len = %d, want 2", s.Len())
	}
}

func TestStore_RemoveReturnsFilter(t *testing.T) {
	s := NewStore(Resource("aws_ec2"), Tag("env", "prod"))
	removed, ok := s.Remove("resource:aws_ec2")
	if !ok || removed.Type != TypeResource {
		t.Fatalf("Remove = %v, %v; want resource filter", removed, ok)
	}
	if _, ok := s.Resource(); ok {
		t.Fatal("Resource() still set after removing resource filter")
	}
	if _, ok := s.Remove("missing"); ok {
		t.Fatal("Remove(missing) reported success")
	}
}

func TestStore_ReplaceAllLastResourceWins(t *testing.T) {
	s := NewStore()
	s.AddIncomplete("env")
	s.ReplaceAll([]Filter{
		Resource("aws_ebs"),
		Tag("env", "prod"),
		Tag("env", "prod"),
		Incomplete("team"),
		Resource("aws_elb"),
	})
	got := s.List()
	if len(got) != 2 || got[0].ID != "env:prod" || got[1].ID != "resource:aws_elb" {
		t.Fatalf("List = %v, want [env:prod resource:aws_elb]", got)
	}
	if _, ok := s.Pending(); ok {
		t.Fatal("ReplaceAll kept placeholder")
	}
}

func TestStore_LoadFromHistory(t *testing.T) {
	s := NewStore(Tag("old", "value"))
	filters, resource := s.LoadFromHistory("resource:aws_ec2;env:prod,staging;account:111,222")

	if resource != "aws_ec2" {
		t.Fatalf("resource = %q, want aws_ec2", resource)
	}
	want := []string{"resource:aws_ec2", "env:prod", "env:staging", "account:111", "account:222"}
	if len(filters) != len(want) {
		t.Fatalf("filters = %v, want %v", filters, want)
	}
	for i, id := range want {
		if filters[i].ID != id {
			t.Fatalf("filter %d = %q, want %q", i, filters[i].ID, id)
		}
	}
	if filters[3].Type != TypeAccount || filters[1].Type != TypeTag {
		t.Fatalf("unexpected types in %v", filters)
	}
}
