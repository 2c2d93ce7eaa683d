package presenter

import (
	"encoding/xml"
	"fmt"
	"io"
	"time"

	"github.com/MrSnakeDoc/zonewatch/internal/domain"
)

// Namespace is the XML namespace of the zone documents
const Namespace = "http://docs.openstack.org/compute/ext/availabilityzone/api/v1.1"

const (
	xmlTimestamp      = "2006-01-02 15:04:05"
	xmlTimestampMicro = "2006-01-02 15:04:05.000000"
	xmlNone           = "None"
)

type xmlZones struct {
	XMLName xml.Name  `xml:"http://docs.openstack.org/compute/ext/availabilityzone/api/v1.1 availabilityZones"`
	Zones   []xmlZone `xml:"availabilityZone"`
}

type xmlZone struct {
	Name  string       `xml:"name,attr"`
	State xmlZoneState `xml:"zoneState"`
	Hosts *xmlHosts    `xml:"hosts"`
}

type xmlZoneState struct {
	Available xmlBool `xml:"available,attr"`
}

type xmlHosts struct {
	Hosts []xmlHost `xml:"host"`
}

type xmlHost struct {
	Name     string       `xml:"name,attr"`
	Services []xmlService `xml:"services>service"`
}

type xmlService struct {
	Name  string          `xml:"name,attr"`
	State xmlServiceState `xml:"serviceState"`
}

type xmlServiceState struct {
	Available xmlBool `xml:"available,attr"`
	Active    xmlBool `xml:"active,attr"`
	UpdatedAt xmlTime `xml:"updated_at,attr"`
}

// xmlBool renders as True or False
type xmlBool bool

func (b xmlBool) MarshalXMLAttr(name xml.Name) (xml.Attr, error) {
	value := "False"
	if b {
		value = "True"
	}
	return xml.Attr{Name: name, Value: value}, nil
}

func (b *xmlBool) UnmarshalXMLAttr(attr xml.Attr) error {
	switch attr.Value {
	case "True":
		*b = true
	case "False":
		*b = false
	default:
		return fmt.Errorf("invalid boolean %q in %s", attr.Value, attr.Name.Local)
	}
	return nil
}

// xmlTime renders as "2012-12-26 14:45:25", with microseconds only when set
type xmlTime time.Time

func (t xmlTime) MarshalXMLAttr(name xml.Name) (xml.Attr, error) {
	return xml.Attr{Name: name, Value: formatXMLTime(time.Time(t))}, nil
}

func (t *xmlTime) UnmarshalXMLAttr(attr xml.Attr) error {
	if attr.Value == xmlNone {
		*t = xmlTime{}
		return nil
	}
	layout := xmlTimestamp
	if len(attr.Value) > len(xmlTimestamp) {
		layout = xmlTimestampMicro
	}
	parsed, err := time.Parse(layout, attr.Value)
	if err != nil {
		return fmt.Errorf("invalid timestamp %q: %w", attr.Value, err)
	}
	*t = xmlTime(parsed)
	return nil
}

func formatXMLTime(t time.Time) string {
	if t.IsZero() {
		return xmlNone
	}
	t = t.UTC()
	if t.Nanosecond()/int(time.Microsecond) != 0 {
		return t.Format(xmlTimestampMicro)
	}
	return t.Format(xmlTimestamp)
}

func toXML(zones []domain.Zone) xmlZones {
	doc := xmlZones{Zones: make([]xmlZone, 0, len(zones))}
	for _, z := range zones {
		zone := xmlZone{Name: z.Name, State: xmlZoneState{Available: xmlBool(z.Available)}}
		if z.Hosts.Present() {
			zone.Hosts = &xmlHosts{}
			z.Hosts.Each(func(host string, services *domain.Services) bool {
				h := xmlHost{Name: host}
				for pair := services.Oldest(); pair != nil; pair = pair.Next() {
					h.Services = append(h.Services, xmlService{
						Name: pair.Key,
						State: xmlServiceState{
							Available: xmlBool(pair.Value.Available),
							Active:    xmlBool(pair.Value.Active),
							UpdatedAt: xmlTime(pair.Value.UpdatedAt),
						},
					})
				}
				zone.Hosts.Hosts = append(zone.Hosts.Hosts, h)
				return true
			})
		}
		doc.Zones = append(doc.Zones, zone)
	}
	return doc
}

func fromXML(doc xmlZones) []domain.Zone {
	zones := make([]domain.Zone, 0, len(doc.Zones))
	for _, z := range doc.Zones {
		zone := domain.Zone{Name: z.Name, Available: bool(z.State.Available), Hosts: domain.NoHosts()}
		if z.Hosts != nil {
			zone.Hosts = domain.NewHosts()
			for _, h := range z.Hosts.Hosts {
				for _, s := range h.Services {
					zone.Hosts.Add(h.Name, s.Name, domain.ServiceState{
						Active:    bool(s.State.Active),
						Available: bool(s.State.Available),
						UpdatedAt: time.Time(s.State.UpdatedAt),
					})
				}
			}
		}
		zones = append(zones, zone)
	}
	return zones
}

// EncodeXML writes zones as an XML document
func EncodeXML(w io.Writer, zones []domain.Zone) error {
	if _, err := io.WriteString(w, xml.Header); err != nil {
		return err
	}
	enc := xml.NewEncoder(w)
	if err := enc.Encode(toXML(zones)); err != nil {
		return fmt.Errorf("failed to encode zones: %w", err)
	}
	return enc.Close()
}

// DecodeXML reads an XML document written by EncodeXML
func DecodeXML(r io.Reader) ([]domain.Zone, error) {
	var doc xmlZones
	if err := xml.NewDecoder(r).Decode(&doc); err != nil {
		return nil, fmt.Errorf("failed to decode zones: %w", err)
	}
	return fromXML(doc), nil
}
