package domain

// Message es la única entidad del sistema: un mensaje entre dos identidades.
// El id lo asigna el store al crear el registro y nunca se reutiliza.
type Message struct {
	ID        int64  `json:"id"`
	Text      string `json:"text"`
	Sender    string `json:"sender"`
	Recipient string `json:"recipient"`
}

// IsBetween indica si el mensaje pertenece exactamente al par (sender, recipient).
// El filtro es por igualdad de campos, no simétrico: un mensaje de B hacia A
// no pertenece a la vista (A, B). Comportamiento heredado del cliente original.
func (m Message) IsBetween(sender, recipient string) bool {
	return m.Sender == sender && m.Recipient == recipient
}
