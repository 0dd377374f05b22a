package config

import (
	"bytes"
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"

	"tooban/internal/fsatomic"
)

// SaveStaff updates the staff section in the config file.
// This preserves comments and formatting in other sections by using yaml.Node.
func SaveStaff(configPath string, staff []StaffConfig) error {
	return saveSection(configPath, "staff", buildStaffNode(staff))
}

// SaveRules updates the rules section in the config file.
// This preserves comments and formatting in other sections by using yaml.Node.
func SaveRules(configPath string, rules RulesConfig) error {
	return saveSection(configPath, "rules", buildRulesNode(rules))
}

// UpsertStaff adds or replaces a staff member by name and saves.
func UpsertStaff(configPath string, staff []StaffConfig, member StaffConfig) error {
	updated := make([]StaffConfig, 0, len(staff)+1)
	replaced := false
	for _, s := range staff {
		if s.Name == member.Name {
			updated = append(updated, member)
			replaced = true
			continue
		}
		updated = append(updated, s)
	}
	if !replaced {
		updated = append(updated, member)
	}
	if err := ValidateStaff(updated); err != nil {
		return err
	}
	return SaveStaff(configPath, updated)
}

// RemoveStaff deletes a staff member by name and saves.
// Returns an error when the name is not configured.
func RemoveStaff(configPath string, staff []StaffConfig, name string) error {
	updated := make([]StaffConfig, 0, len(staff))
	found := false
	for _, s := range staff {
		if s.Name == name {
			found = true
			continue
		}
		updated = append(updated, s)
	}
	if !found {
		return fmt.Errorf("staff %q is not configured", name)
	}
	return SaveStaff(configPath, updated)
}

// saveSection replaces one top-level key of the config file, keeping the
// rest of the document untouched, and writes the result atomically with a
// backup of the previous contents.
func saveSection(configPath, key string, sectionNode *yaml.Node) error {
	data, err := fsatomic.ReadFile(configPath)
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("reading config: %w", err)
	}

	// Parse into yaml.Node to preserve comments
	var doc yaml.Node
	if len(data) > 0 {
		if err := yaml.Unmarshal(data, &doc); err != nil {
			return fmt.Errorf("parsing config: %w", err)
		}
	}

	if doc.Kind == 0 {
		// Empty or new file - create document structure
		doc = yaml.Node{
			Kind: yaml.DocumentNode,
			Content: []*yaml.Node{
				{
					Kind: yaml.MappingNode,
					Content: []*yaml.Node{
						{Kind: yaml.ScalarNode, Value: key},
						sectionNode,
					},
				},
			},
		}
	} else if doc.Kind == yaml.DocumentNode && len(doc.Content) > 0 {
		root := doc.Content[0]
		if root.Kind == yaml.MappingNode {
			// Find and replace the key, or append it
			found := false
			for i := 0; i < len(root.Content)-1; i += 2 {
				if root.Content[i].Value == key {
					root.Content[i+1] = sectionNode
					found = true
					break
				}
			}
			if !found {
				root.Content = append(root.Content,
					&yaml.Node{Kind: yaml.ScalarNode, Value: key},
					sectionNode,
				)
			}
		}
	}

	var buf bytes.Buffer
	encoder := yaml.NewEncoder(&buf)
	encoder.SetIndent(2)
	if err := encoder.Encode(&doc); err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	_ = encoder.Close()

	if err := fsatomic.WriteFile(configPath, buf.Bytes(), fsatomic.Options{Perm: 0o600, Backup: true}); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}
	return nil
}

func scalar(value string) *yaml.Node {
	return &yaml.Node{Kind: yaml.ScalarNode, Value: value}
}

// buildStaffNode creates a yaml.Node representing the staff array.
func buildStaffNode(staff []StaffConfig) *yaml.Node {
	node := &yaml.Node{
		Kind:    yaml.SequenceNode,
		Content: make([]*yaml.Node, 0, len(staff)),
	}

	for _, s := range staff {
		mNode := &yaml.Node{Kind: yaml.MappingNode}

		mNode.Content = append(mNode.Content, scalar("name"), scalar(s.Name))
		if s.Color != "" {
			colorNode := scalar(s.Color)
			colorNode.Style = yaml.DoubleQuotedStyle
			mNode.Content = append(mNode.Content, scalar("color"), colorNode)
		}
		if len(s.BlockedWeekdays) > 0 {
			blocked := &yaml.Node{Kind: yaml.SequenceNode, Style: yaml.FlowStyle}
			for _, wd := range s.BlockedWeekdays {
				blocked.Content = append(blocked.Content, scalar(wd))
			}
			mNode.Content = append(mNode.Content, scalar("blocked_weekdays"), blocked)
		}
		if !s.IsActive() {
			mNode.Content = append(mNode.Content, scalar("active"),
				&yaml.Node{Kind: yaml.ScalarNode, Value: "false", Tag: "!!bool"})
		}

		node.Content = append(node.Content, mNode)
	}

	return node
}

// buildRulesNode creates a yaml.Node representing the rules mapping.
func buildRulesNode(rules RulesConfig) *yaml.Node {
	return &yaml.Node{
		Kind: yaml.MappingNode,
		Content: []*yaml.Node{
			scalar("fixed"), buildRuleListNode(rules.Fixed),
			scalar("vacations"), buildRuleListNode(rules.Vacations),
		},
	}
}

func buildRuleListNode(list []RuleConfig) *yaml.Node {
	node := &yaml.Node{
		Kind:    yaml.SequenceNode,
		Content: make([]*yaml.Node, 0, len(list)),
	}
	for _, r := range list {
		node.Content = append(node.Content, &yaml.Node{
			Kind: yaml.MappingNode,
			Content: []*yaml.Node{
				scalar("staff"), scalar(r.Staff),
				scalar("week"), intScalar(r.Week),
				scalar("weekday"), intScalar(r.Weekday),
			},
		})
	}
	return node
}

func intScalar(v int) *yaml.Node {
	return &yaml.Node{Kind: yaml.ScalarNode, Value: strconv.Itoa(v), Tag: "!!int"}
}
