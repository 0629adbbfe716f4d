package cart

// Product is the normalized input shape for AddToCart. Catalog payloads are
// mapped into this shape at the API boundary before they reach the store.
type Product struct {
	ID           string
	Name         string
	UnitPrice    int64
	DisplayPrice string
}

// Line is one product's aggregated presence in the cart. UnitPrice is fixed at
// first insertion; DisplayPrice is carried through unchanged and never used in
// arithmetic.
type Line struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	UnitPrice    int64  `json:"price"`
	DisplayPrice string `json:"displayPrice,omitempty"`
	Quantity     int    `json:"quantity"`
}

// State is the cart aggregate. Lines are unique per product id and keep their
// insertion order.
type State struct {
	Items []Line
}

type actionType string

const (
	actionAddItem         actionType = "ADD_ITEM"
	actionRemoveOne       actionType = "REMOVE_ONE"
	actionRemoveAllOfItem actionType = "REMOVE_ALL_OF_ITEM"
	actionClear           actionType = "CLEAR"
	actionLoadCart        actionType = "LOAD_CART"
)

type action struct {
	typ     actionType
	product Product
	id      string
	items   []Line
}

// reduce maps (state, action) to the next state. It is pure: the input state
// and its items slice are never mutated. Unknown action types return the input
// state unchanged.
func reduce(state State, act action) State {
	switch act.typ {
	case actionAddItem:
		for i, line := range state.Items {
			if line.ID == act.product.ID {
				items := append([]Line(nil), state.Items...)
				items[i].Quantity++
				return State{Items: items}
			}
		}
		items := append([]Line(nil), state.Items...)
		items = append(items, Line{
			ID:           act.product.ID,
			Name:         act.product.Name,
			UnitPrice:    act.product.UnitPrice,
			DisplayPrice: act.product.DisplayPrice,
			Quantity:     1,
		})
		return State{Items: items}

	case actionRemoveOne:
		for i, line := range state.Items {
			if line.ID != act.id {
				continue
			}
			if line.Quantity <= 1 {
				return State{Items: removeIndex(state.Items, i)}
			}
			items := append([]Line(nil), state.Items...)
			items[i].Quantity--
			return State{Items: items}
		}
		return state

	case actionRemoveAllOfItem:
		for i, line := range state.Items {
			if line.ID == act.id {
				return State{Items: removeIndex(state.Items, i)}
			}
		}
		return state

	case actionClear:
		return State{}

	case actionLoadCart:
		if act.items == nil {
			return State{Items: []Line{}}
		}
		return State{Items: append([]Line(nil), act.items...)}

	default:
		return state
	}
}

func removeIndex(items []Line, i int) []Line {
	out := make([]Line, 0, len(items)-1)
	out = append(out, items[:i]...)
	return append(out, items[i+1:]...)
}
