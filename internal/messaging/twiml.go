package messaging

import "encoding/xml"

// Minimal TwiML builder for webhook acknowledgments. It intentionally avoids
// any provider SDK dependency; the inbound-SMS webhook only ever needs an
// empty, valid response so the provider stops waiting.

type twimlResponse struct {
	XMLName xml.Name `xml:"Response"`
}

// EmptyTwiML renders the empty acknowledgment document.
func EmptyTwiML() []byte {
	out, _ := xml.Marshal(twimlResponse{})
	return append([]byte(xml.Header), out...)
}
