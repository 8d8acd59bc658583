// internal/domain/listing/catalog.go

package listing

// FacilityCategory groups facilities on the detail page
type FacilityCategory string

const (
	CategoryRoom        FacilityCategory = "Kamar"
	CategoryEnvironment FacilityCategory = "Lingkungan"
)

// Facility is one entry of the facility catalog
type Facility struct {
	Name     string           `json:"name" yaml:"name"`
	Category FacilityCategory `json:"category" yaml:"category"`
}

// FacilityCatalog is the fixed list of facility names shared by listings and filters
type FacilityCatalog struct {
	facilities []Facility
	index      map[string]FacilityCategory
}

// NewFacilityCatalog builds a catalog; later duplicates are ignored
func NewFacilityCatalog(facilities []Facility) *FacilityCatalog {
	c := &FacilityCatalog{
		facilities: make([]Facility, 0, len(facilities)),
		index:      make(map[string]FacilityCategory, len(facilities)),
	}
	for _, f := range facilities {
		if f.Name == "" {
			continue
		}
		if _, exists := c.index[f.Name]; exists {
			continue
		}
		c.index[f.Name] = f.Category
		c.facilities = append(c.facilities, f)
	}
	return c
}

// DefaultFacilityCatalog returns the catalog used by the filter modal
func DefaultFacilityCatalog() *FacilityCatalog {
	return NewFacilityCatalog([]Facility{
		{"Air Panas", CategoryRoom},
		{"AC", CategoryRoom},
		{"Kasur", CategoryRoom},
		{"Listrik Token", CategoryRoom},
		{"Lemari Baju", CategoryRoom},
		{"K. Mandi Dalam", CategoryRoom},
		{"Toilet Duduk", CategoryRoom},
		{"Kipas Angin", CategoryRoom},
		{"Meja", CategoryRoom},
		{"Kursi", CategoryRoom},
		{"TV", CategoryRoom},
		{"Jendela", CategoryRoom},
		{"Wi-Fi", CategoryEnvironment},
		{"Kulkas Bersama", CategoryEnvironment},
		{"Taman", CategoryEnvironment},
		{"Toko Kelontong", CategoryEnvironment},
		{"CCTV", CategoryEnvironment},
		{"Parkir Motor", CategoryEnvironment},
		{"Parkir Mobil", CategoryEnvironment},
		{"Penjaga Kos", CategoryEnvironment},
		{"Dapur Bersama", CategoryEnvironment},
		{"Laundry", CategoryEnvironment},
		{"Tempat Sampah", CategoryEnvironment},
		{"Locker Bersama", CategoryEnvironment},
	})
}

// Contains reports whether a facility name is in the catalog
func (c *FacilityCatalog) Contains(name string) bool {
	_, ok := c.index[name]
	return ok
}

// Category returns the category of a facility
func (c *FacilityCatalog) Category(name string) (FacilityCategory, bool) {
	category, ok := c.index[name]
	return category, ok
}

// Facilities returns a copy of the catalog entries in catalog order
func (c *FacilityCatalog) Facilities() []Facility {
	out := make([]Facility, len(c.facilities))
	copy(out, c.facilities)
	return out
}

// Split divides facility names into room and environment facilities
func (c *FacilityCatalog) Split(names []string) (room, environment []string) {
	room = []string{}
	environment = []string{}
	for _, name := range names {
		switch c.index[name] {
		case CategoryRoom:
			room = append(room, name)
		case CategoryEnvironment:
			environment = append(environment, name)
		}
	}
	return room, environment
}
