package model

// Physician is an entry in the doctor directory
type Physician struct {
	Name  string `json:"name" db:"name"`
	Image string `json:"image" db:"image"`
}

// DefaultPhysicians is served when the doctor collection is empty or unreachable.
var DefaultPhysicians = []Physician{
	{Name: "John Green", Image: "/assets/images/dr-green.png"},
	{Name: "Leila Cameron", Image: "/assets/images/dr-cameron.png"},
	{Name: "David Livingston", Image: "/assets/images/dr-livingston.png"},
	{Name: "Evan Peter", Image: "/assets/images/dr-peter.png"},
	{Name: "Jane Powell", Image: "/assets/images/dr-powell.png"},
	{Name: "Alex Ramirez", Image: "/assets/images/dr-remirez.png"},
	{Name: "Jasmine Lee", Image: "/assets/images/dr-lee.png"},
	{Name: "Alyana Cruz", Image: "/assets/images/dr-cruz.png"},
	{Name: "Hardik Sharma", Image: "/assets/images/dr-sharma.png"},
}

// PhysicianNames returns the names in directory order.
func PhysicianNames(physicians []Physician) []string {
	names := make([]string, 0, len(physicians))
	for _, p := range physicians {
		names = append(names, p.Name)
	}
	return names
}
