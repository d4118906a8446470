package response

// CollectionResponse is one page of items. Total counts all items, not only
// the ones on the page.
type CollectionResponse[T any] struct {
	Items      []T         `json:"items"`
	Total      int         `json:"total"`
	Pagination *Pagination `json:"pagination,omitempty"`
}

func NewCollectionResponse[T any](items []T, pagination Pagination) CollectionResponse[T] {
	if items == nil {
		items = []T{}
	}

	return CollectionResponse[T]{
		Items:      items,
		Total:      pagination.Total,
		Pagination: &pagination,
	}
}
