package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Profile describes one registration run of the terminal client.
type Profile struct {
	Mobile  string `yaml:"mobile"`
	RegType string `yaml:"reg_type"`

	Captures struct {
		Document string `yaml:"document"`
		Neutral  string `yaml:"neutral"`
		Smile    string `yaml:"smile"`
	} `yaml:"captures"`

	// Personal overrides values prefilled from the identity document.
	Personal struct {
		FirstName  string `yaml:"first_name"`
		MiddleName string `yaml:"middle_name"`
		LastName   string `yaml:"last_name"`
		Suffix     string `yaml:"suffix"`
		Birthday   string `yaml:"birthday"`
		Gender     string `yaml:"gender"`
		UnitNumber string `yaml:"unit_number"`
		Street     string `yaml:"street"`
		Village    string `yaml:"village"`
	} `yaml:"personal"`

	// Address entries match an option by code or by name.
	Address struct {
		Province   string `yaml:"province"`
		City       string `yaml:"city"`
		Barangay   string `yaml:"barangay"`
		PostalCode string `yaml:"postal_code"`
	} `yaml:"address"`

	SupportingDocuments []SupportingDocument `yaml:"supporting_documents"`
}

// SupportingDocument is an image file uploaded on the supporting documents step.
type SupportingDocument struct {
	Type string `yaml:"type"`
	Path string `yaml:"path"`
}

// LoadProfile reads a profile file. Relative capture and document paths are
// resolved against the profile's directory.
func LoadProfile(path string) (*Profile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading profile: %w", err)
	}
	var p Profile
	if err := yaml.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("parsing profile %s: %w", path, err)
	}

	dir := filepath.Dir(path)
	p.Captures.Document = resolvePath(dir, p.Captures.Document)
	p.Captures.Neutral = resolvePath(dir, p.Captures.Neutral)
	p.Captures.Smile = resolvePath(dir, p.Captures.Smile)
	for i := range p.SupportingDocuments {
		p.SupportingDocuments[i].Path = resolvePath(dir, p.SupportingDocuments[i].Path)
	}
	return &p, p.validate()
}

func resolvePath(dir, p string) string {
	if p == "" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(dir, p)
}

func (p *Profile) validate() error {
	switch {
	case p.Mobile == "":
		return fmt.Errorf("profile: mobile is required")
	case p.Captures.Document == "":
		return fmt.Errorf("profile: captures.document is required")
	case p.Captures.Neutral == "" || p.Captures.Smile == "":
		return fmt.Errorf("profile: captures.neutral and captures.smile are required")
	}
	return nil
}
