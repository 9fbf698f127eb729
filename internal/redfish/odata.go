package redfish

// IDRef is a reference to another resource by its @odata.id.
type IDRef struct {
	ODataID string `json:"@odata.id"`
}

// Collection is the envelope for resource collections.
type Collection struct {
	ODataID      string  `json:"@odata.id"`
	Name         string  `json:"Name"`
	MembersCount int     `json:"Members@odata.count"`
	Members      []IDRef `json:"Members"`
}

// NewCollection builds a collection envelope from member references.
func NewCollection(odataID, name string, members []IDRef) Collection {
	if members == nil {
		members = []IDRef{}
	}
	return Collection{
		ODataID:      odataID,
		Name:         name,
		MembersCount: len(members),
		Members:      members,
	}
}
