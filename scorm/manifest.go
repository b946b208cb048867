package scorm

import (
	"encoding/xml"
	"fmt"
	"strconv"
	"strings"
)

// ManifestFileName is the conventional descriptor name at the archive root
const ManifestFileName = "imsmanifest.xml"

// Manifest is the parsed imsmanifest.xml of a package
type Manifest struct {
	Title         string         `json:"title"`
	Description   string         `json:"description,omitempty"`
	Version       Version        `json:"version"`
	LaunchUrl     string         `json:"launchUrl"`
	MasteryScore  *float64       `json:"masteryScore,omitempty"`
	Organizations []Organization `json:"organizations"`
	Resources     []Resource     `json:"resources"`
}

// Organization is one organization tree from the manifest
type Organization struct {
	Identifier string `json:"identifier"`
	Title      string `json:"title"`
	Items      []Item `json:"items"`
}

// Item is an activity node inside an organization
type Item struct {
	Identifier  string `json:"identifier"`
	Title       string `json:"title"`
	ResourceRef string `json:"resourceRef,omitempty"`
}

// Resource is one resource declaration from the manifest
type Resource struct {
	Identifier string `json:"identifier"`
	Type       string `json:"type"`
	Href       string `json:"href,omitempty"`
	ScormType  string `json:"scormType,omitempty"`
}

// xmlNode is a generic element tree. Manifests come from many authoring
// tools with inconsistent namespace prefixes, so matching is done on local
// names over the whole tree rather than against a fixed schema.
type xmlNode struct {
	XMLName  xml.Name
	Attrs    []xml.Attr `xml:",any,attr"`
	Content  string     `xml:",chardata"`
	Children []xmlNode  `xml:",any"`
}

// findFirst returns the first element with the given local name, depth-first
func (n *xmlNode) findFirst(local string) *xmlNode {
	for i := range n.Children {
		c := &n.Children[i]
		if strings.EqualFold(c.XMLName.Local, local) {
			return c
		}
		if found := c.findFirst(local); found != nil {
			return found
		}
	}
	return nil
}

// findAll collects every element with the given local name, depth-first
func (n *xmlNode) findAll(local string, out *[]*xmlNode) {
	for i := range n.Children {
		c := &n.Children[i]
		if strings.EqualFold(c.XMLName.Local, local) {
			*out = append(*out, c)
		}
		c.findAll(local, out)
	}
}

// attr returns the first attribute matching the local name, any namespace
func (n *xmlNode) attr(local string) string {
	for _, a := range n.Attrs {
		if strings.EqualFold(a.Name.Local, local) {
			return a.Value
		}
	}
	return ""
}

func (n *xmlNode) text() string {
	return strings.TrimSpace(n.Content)
}

// ParseManifest parses the descriptor document of a package. Malformed XML is
// a hard failure; missing optional elements fall back to defaults.
func ParseManifest(data []byte) (*Manifest, error) {
	var root xmlNode
	if err := xml.Unmarshal(data, &root); err != nil {
		return nil, fmt.Errorf("invalid manifest XML: %w", err)
	}
	// Wrap so the document element itself is searchable
	doc := xmlNode{Children: []xmlNode{root}}

	// Dialect detection: any 2004-era schemaversion selects SCORM 2004,
	// everything else (including absent) is SCORM 1.2
	version := Scorm12
	if sv := doc.findFirst("schemaversion"); sv != nil && strings.Contains(sv.text(), "2004") {
		version = Scorm2004
	}

	manifest := &Manifest{
		Title:   "SCORM Module",
		Version: version,
	}
	if t := doc.findFirst("title"); t != nil && t.text() != "" {
		manifest.Title = t.text()
	}
	if d := doc.findFirst("description"); d != nil {
		manifest.Description = d.text()
	}

	// Organizations and their item trees
	var orgNodes []*xmlNode
	doc.findAll("organization", &orgNodes)
	for i, org := range orgNodes {
		identifier := org.attr("identifier")
		if identifier == "" {
			identifier = fmt.Sprintf("org_%d", i)
		}
		title := "Organization"
		if t := org.findFirst("title"); t != nil && t.text() != "" {
			title = t.text()
		}

		var itemNodes []*xmlNode
		org.findAll("item", &itemNodes)
		items := make([]Item, 0, len(itemNodes))
		for j, item := range itemNodes {
			itemID := item.attr("identifier")
			if itemID == "" {
				itemID = fmt.Sprintf("item_%d", j)
			}
			itemTitle := "Item"
			if t := item.findFirst("title"); t != nil && t.text() != "" {
				itemTitle = t.text()
			}
			items = append(items, Item{
				Identifier:  itemID,
				Title:       itemTitle,
				ResourceRef: item.attr("identifierref"),
			})
		}

		manifest.Organizations = append(manifest.Organizations, Organization{
			Identifier: identifier,
			Title:      title,
			Items:      items,
		})
	}

	// Resources and launch target resolution. The first sco-typed resource
	// with an href wins, then the first resource with any href, then the
	// literal index.html fallback.
	var resourceNodes []*xmlNode
	doc.findAll("resource", &resourceNodes)
	launchUrl := ""
	for i, res := range resourceNodes {
		identifier := res.attr("identifier")
		if identifier == "" {
			identifier = fmt.Sprintf("resource_%d", i)
		}
		resType := res.attr("type")
		if resType == "" {
			resType = "webcontent"
		}
		href := res.attr("href")
		scormType := res.attr("scormtype")

		if href != "" && strings.EqualFold(scormType, "sco") && launchUrl == "" {
			launchUrl = href
		}

		manifest.Resources = append(manifest.Resources, Resource{
			Identifier: identifier,
			Type:       resType,
			Href:       href,
			ScormType:  scormType,
		})
	}
	if launchUrl == "" {
		for _, res := range manifest.Resources {
			if res.Href != "" {
				launchUrl = res.Href
				break
			}
		}
	}
	if launchUrl == "" {
		launchUrl = "index.html"
	}
	manifest.LaunchUrl = launchUrl

	// Mastery score threshold (SCORM 2004 packages only)
	if version == Scorm2004 {
		if ms := doc.findFirst("masteryscore"); ms != nil {
			if score, err := strconv.ParseFloat(ms.text(), 64); err == nil {
				manifest.MasteryScore = &score
			}
		}
	}

	return manifest, nil
}

// ValidateLaunchTarget checks that the resolved launch URL exists in the
// archive file listing. A package whose entry point is missing can never
// report anything back, so ingestion rejects it outright.
func (m *Manifest) ValidateLaunchTarget(files []string) error {
	// Launch hrefs may carry query parameters; only the path must exist
	target := m.LaunchUrl
	if i := strings.IndexByte(target, '?'); i >= 0 {
		target = target[:i]
	}
	for _, f := range files {
		if f == target {
			return nil
		}
	}
	return fmt.Errorf("launch target %q not found in package archive", target)
}
