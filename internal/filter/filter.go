package filter

import (
	"net/url"
	"sort"
	"strings"
)

// Type classifies a filter.
type Type string

const (
	TypeResource      Type = "resource"
	TypeTag           Type = "tag"
	TypeAccount       Type = "account"
	TypeTagIncomplete Type = "tagIncomplete"
)

const (
	resourceKey = "resource"
	accountKey  = "account"

	pairSep  = ":"
	valueSep = ","
	groupSep = ";"
)

// Filter narrows the displayed data. ID is the canonical key:value form and
// is the identity used for de-duplication.
type Filter struct {
	ID    string
	Title string
	Type  Type
	Key   string
	Value string
}

// Resource builds the resource-type filter for a resource name.
func Resource(name string) Filter {
	return Filter{
		ID:    resourceKey + pairSep + name,
		Title: "Resource: " + name,
		Type:  TypeResource,
		Key:   resourceKey,
		Value: name,
	}
}

// Tag builds a tag filter for one key/value pair.
func Tag(key, value string) Filter {
	return Filter{
		ID:    key + pairSep + value,
		Title: key + ": " + value,
		Type:  TypeTag,
		Key:   key,
		Value: value,
	}
}

// Account builds an account filter. The title uses name when known.
func Account(id, name string) Filter {
	title := name
	if strings.TrimSpace(title) == "" {
		title = id
	}
	return Filter{
		ID:    accountKey + pairSep + id,
		Title: "Account: " + title,
		Type:  TypeAccount,
		Key:   accountKey,
		Value: id,
	}
}

// Incomplete builds the placeholder shown while a tag value is being picked.
func Incomplete(key string) Filter {
	return Filter{
		ID:    key + pairSep,
		Title: key + ": …",
		Type:  TypeTagIncomplete,
		Key:   key,
	}
}

// FormatTokens renders filters as history tokens: values sharing a key are
// comma-joined and key groups are semicolon-joined, in first-seen order.
// Incomplete filters are skipped.
func FormatTokens(filters []Filter) string {
	var order []string
	groups := make(map[string][]string)
	for _, f := range filters {
		if f.Type == TypeTagIncomplete || f.Key == "" {
			continue
		}
		if _, ok := groups[f.Key]; !ok {
			order = append(order, f.Key)
		}
		groups[f.Key] = append(groups[f.Key], f.Value)
	}
	parts := make([]string, 0, len(order))
	for _, key := range order {
		parts = append(parts, key+pairSep+strings.Join(groups[key], valueSep))
	}
	return strings.Join(parts, groupSep)
}

// ParseTokens parses history tokens into filters. A resource:<name> token
// also yields the resource name. Malformed tokens are skipped.
func ParseTokens(raw string) ([]Filter, string) {
	var (
		filters  []Filter
		resource string
	)
	for _, token := range strings.Split(raw, groupSep) {
		token = strings.TrimSpace(token)
		if token == "" {
			continue
		}
		key, values, ok := splitToken(token)
		if !ok {
			continue
		}
		switch key {
		case resourceKey:
			// Only the first value names a resource; a resource token never
			// carries a list.
			name := strings.TrimSpace(values[0])
			if name == "" {
				continue
			}
			resource = name
			filters = append(filters, Resource(name))
		case accountKey:
			for _, v := range values {
				if v = strings.TrimSpace(v); v != "" {
					filters = append(filters, Account(v, ""))
				}
			}
		default:
			for _, v := range values {
				if v = strings.TrimSpace(v); v != "" {
					filters = append(filters, Tag(key, v))
				}
			}
		}
	}
	return filters, resource
}

// splitToken splits key:v1,v2. Reserved keys split on the first colon; tag
// keys split on the last so keys such as aws:cloudformation:stack-name survive.
func splitToken(token string) (string, []string, bool) {
	var idx int
	switch {
	case strings.HasPrefix(token, resourceKey+pairSep), strings.HasPrefix(token, accountKey+pairSep):
		idx = strings.Index(token, pairSep)
	default:
		idx = strings.LastIndex(token, pairSep)
	}
	if idx <= 0 || idx == len(token)-1 {
		return "", nil, false
	}
	key := strings.TrimSpace(token[:idx])
	if key == "" {
		return "", nil, false
	}
	return key, strings.Split(token[idx+1:], valueSep), true
}

// QueryParams shapes filters into the API query. Resource filters are not
// sent; tags become filter_Data.Tag.<key>=<v1,v2> and accounts become
// filter_Data.AccountID=<id1,id2>.
func QueryParams(filters []Filter) url.Values {
	values := url.Values{}
	for _, f := range filters {
		var param string
		switch f.Type {
		case TypeTag:
			param = "filter_Data.Tag." + f.Key
		case TypeAccount:
			param = "filter_Data.AccountID"
		default:
			continue
		}
		if f.Value == "" {
			continue
		}
		if existing := values.Get(param); existing != "" {
			values.Set(param, existing+valueSep+f.Value)
		} else {
			values.Set(param, f.Value)
		}
	}
	return values
}

// Key returns an order-independent identity for a filter list.
func Key(filters []Filter) string {
	ids := make([]string, 0, len(filters))
	for _, f := range filters {
		ids = append(ids, f.ID)
	}
	sort.Strings(ids)
	return strings.Join(ids, groupSep)
}
