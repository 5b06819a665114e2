// Package config resolves the XML configuration tree (root, optional
// Default, any number of Project) into an immutable, layered model of
// per-project mapping rules, and selects which projects a run enables.
package config

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
)

// xmlRoot is the raw shape of the configuration file.
type xmlRoot struct {
	XMLName xml.Name      `xml:"Projects"`
	Default *xmlProject   `xml:"Default"`
	Project []*xmlProject `xml:"Project"`
}

type xmlProject struct {
	Name                   string         `xml:"Name,attr"`
	Branch                 string         `xml:"Branch,attr"`
	InheritDefault         string         `xml:"InheritDefault,attr"`
	InheritDefaultMappings string         `xml:"InheritDefaultMappings,attr"`
	ExplicitOnly           string         `xml:"ExplicitOnly,attr"`
	NeedsProjects          string         `xml:"NeedsProjects,attr"`
	Vars                   *xmlVars       `xml:"Vars"`
	Replace                []xmlReplace   `xml:"Replace"`
	MapBranch              []xmlMapBranch `xml:"MapBranch"`
	MapTag                 []xmlMapTag    `xml:"MapTag"`
}

// xmlVars captures free-form child elements as name/value pairs: each
// child element's tag name is the variable name, its text content the
// raw value.
type xmlVars struct {
	Entries []xmlVarEntry `xml:",any"`
}

type xmlVarEntry struct {
	XMLName xml.Name
	Value   string `xml:",chardata"`
}

type xmlReplace struct {
	Chars string `xml:"Chars,attr"`
	With  string `xml:"With,attr"`
}

type xmlMapBranch struct {
	Branch      string  `xml:"Branch,attr"`
	Refname     *string `xml:"Refname,attr"`
	RevisionRef *string `xml:"RevisionRef,attr"`
}

type xmlMapTag struct {
	Tag     string  `xml:"Tag,attr"`
	Refname *string `xml:"Refname,attr"`
}

// Empty returns a configuration tree with no Default and no Project
// children, for callers (e.g. --no-default-config with no --config file)
// that need to run Resolve without having parsed any XML.
func Empty() *xmlRoot {
	return &xmlRoot{}
}

// ParseXML unmarshals raw configuration bytes into the raw schema,
// rejecting any element or attribute the schema does not define. A
// misspelled MapBranch that silently vanished would change which rule
// wins first-match, so drift is an error here, never ignored. The
// caller passes the result to Resolve.
func ParseXML(data []byte) (*xmlRoot, error) {
	if err := validateShape(data); err != nil {
		return nil, err
	}
	root := &xmlRoot{}
	if err := xml.Unmarshal(data, root); err != nil {
		return nil, err
	}
	return root, nil
}

// allowedAttrs maps each schema element to its legal attribute names.
// Vars children are free-form (the element name is the variable name)
// and carry no attributes.
var allowedAttrs = map[string]map[string]bool{
	"Projects":  {},
	"Default":   projectAttrs,
	"Project":   projectAttrs,
	"Vars":      {},
	"Replace":   {"Chars": true, "With": true},
	"MapBranch": {"Branch": true, "Refname": true, "RevisionRef": true},
	"MapTag":    {"Tag": true, "Refname": true},
}

var projectAttrs = map[string]bool{
	"Name": true, "Branch": true, "InheritDefault": true,
	"InheritDefaultMappings": true, "ExplicitOnly": true, "NeedsProjects": true,
}

var allowedChildren = map[string]map[string]bool{
	"":         {"Projects": true},
	"Projects": {"Default": true, "Project": true},
	"Default":  {"Vars": true, "Replace": true, "MapBranch": true, "MapTag": true},
	"Project":  {"Vars": true, "Replace": true, "MapBranch": true, "MapTag": true},
}

// validateShape walks the raw token stream and errors on the first
// element or attribute that falls outside the schema.
func validateShape(data []byte) error {
	dec := xml.NewDecoder(bytes.NewReader(data))
	var stack []string
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}
		switch t := tok.(type) {
		case xml.StartElement:
			parent := ""
			if len(stack) > 0 {
				parent = stack[len(stack)-1]
			}
			grandparent := ""
			if len(stack) > 1 {
				grandparent = stack[len(stack)-2]
			}
			name := t.Name.Local
			switch {
			case grandparent == "Vars":
				return fmt.Errorf("config: variable <%s> cannot contain child elements", parent)
			case parent == "Vars":
				if len(t.Attr) > 0 {
					return fmt.Errorf("config: variable <%s> cannot carry attributes", name)
				}
			case parent == "Replace" || parent == "MapBranch" || parent == "MapTag":
				return fmt.Errorf("config: element <%s> cannot contain <%s>", parent, name)
			default:
				if children, ok := allowedChildren[parent]; !ok || !children[name] {
					if parent == "" {
						return fmt.Errorf("config: unexpected root element <%s>", name)
					}
					return fmt.Errorf("config: unknown element <%s> under <%s>", name, parent)
				}
				for _, attr := range t.Attr {
					if !allowedAttrs[name][attr.Name.Local] {
						return fmt.Errorf("config: unknown attribute %q on <%s>", attr.Name.Local, name)
					}
				}
			}
			stack = append(stack, name)
		case xml.EndElement:
			stack = stack[:len(stack)-1]
		}
	}
}
