package graph

import (
	"strings"

	"github.com/os-threat/triage/stix"
)

// sightingEvidenceExtID is the extension definition id for the sighting
// evidence extension; its presence alone does not change the sighting icon.
const sightingEvidenceExtID = "extension-definition--0d76d6d9-16ca-43fd-bd41-4f800ba8fc43"

// impactExtID is the extension definition id for the impact core extension.
const impactExtID = "extension-definition--7cc33dd6-f6a1-489b-98ea-522d351d71b9"

// iconFor selects the display icon and label for a raw STIX object based on
// its broad category, following the dialect icon registry.
func iconFor(obj stix.Object) (icon, label string) {
	objType := obj.Type()
	switch {
	case stix.IsSDO(objType):
		return sdoIcon(obj)
	case stix.IsSCO(objType):
		return scoIcon(obj)
	case stix.IsSRO(objType):
		return sroIcon(obj)
	case objType == "marking-definition":
		return "marking", obj.GetString("definition_type")
	default:
		return objType, objType
	}
}

func sdoIcon(obj stix.Object) (string, string) {
	objType := obj.Type()
	if obj.HasAttackMarker() {
		return attackIcon(obj)
	}
	switch objType {
	case "identity":
		if _, ok := obj["extensions"]; ok {
			return "identity-contact", objType
		}
		switch obj.GetString("identity_class") {
		case "individual":
			return "identity-individual", objType
		case "organization":
			return "identity-organization", objType
		case "class":
			return "identity-class", objType
		case "system":
			return "identity-system", objType
		case "group":
			return "identity-group", objType
		default:
			return "identity-unknown", objType
		}
	case "malware":
		if isFamily, _ := obj["is_family"].(bool); isFamily {
			return "malware-family", objType
		}
		return "malware", objType
	case "impact":
		if exts, ok := obj["extensions"].(map[string]any); ok {
			for key := range exts {
				if key != impactExtID {
					return "impact-" + key, objType
				}
			}
		}
		return "impact", objType
	case "incident":
		if _, ok := obj["extensions"]; ok {
			return "incident-ext", "extended incident"
		}
		return "incident", objType
	case "sequence":
		return sequenceIcon(obj)
	default:
		return objType, objType
	}
}

func attackIcon(obj stix.Object) (string, string) {
	objType := obj.Type()
	var attackType string
	switch {
	case strings.HasPrefix(objType, "x-mitre-"):
		attackType = strings.TrimPrefix(objType, "x-mitre-")
	case objType == "attack-pattern":
		attackType = "technique"
		if isSub, _ := obj["x_mitre_is_subtechnique"].(bool); isSub {
			attackType = "subtechnique"
		}
	case objType == "course-of-action":
		attackType = "mitigation"
	case objType == "intrusion-set":
		attackType = "group"
	case objType == "malware", objType == "tool":
		attackType = "software"
	case objType == "campaign":
		attackType = "campaign"
	default:
		attackType = "unknown"
	}
	if !strings.HasPrefix(attackType, "attack-") {
		attackType = "attack-" + attackType
	}
	return attackType, attackType
}

func sequenceIcon(obj stix.Object) (string, string) {
	stepType := obj.GetString("step_type")
	label := strings.ReplaceAll(stepType, "_", " ")
	switch stepType {
	case "start_step", "end_step":
		return "step-terminal", label
	case "single_step":
		if _, ok := obj["on_success"]; ok {
			return "step-xor", label
		}
		return "step-single", label
	default:
		return "step-parallel", label
	}
}

func scoIcon(obj stix.Object) (string, string) {
	objType := obj.Type()
	exts, _ := obj["extensions"].(map[string]any)
	hasExt := func(name string) bool {
		_, ok := exts[name]
		return ok
	}
	switch objType {
	case "email-message":
		if multipart, _ := obj["is_multipart"].(bool); multipart {
			return "email-message-mime", obj.GetString("subject")
		}
		return "email-message", obj.GetString("subject")
	case "file":
		switch {
		case hasExt("archive-ext"):
			return "file-archive", obj.GetString("name")
		case hasExt("pdf-ext"):
			return "file-pdf", obj.GetString("name")
		case hasExt("raster-image-ext"):
			return "file-img", obj.GetString("name")
		case hasExt("windows-pebinary-ext"):
			return "file-bin", obj.GetString("name")
		case hasExt("ntfs-ext"):
			return "file-ntfs", obj.GetString("name")
		default:
			return "file", obj.GetString("name")
		}
	case "network-traffic":
		switch {
		case hasExt("http-request-ext"):
			return "network-traffic-http", "http-request"
		case hasExt("icmp-ext"):
			return "network-traffic-icmp", "icmp"
		case hasExt("tcp-ext"):
			return "network-traffic-tcp", "tcp"
		case hasExt("socket-ext"), hasExt("sock-ext"):
			return "network-traffic-sock", "socket"
		default:
			return "network-traffic", strings.Join(obj.StringList("protocols"), ", ")
		}
	case "user-account":
		if hasExt("unix-account-ext") {
			return "user-account-unix", "unix-account"
		}
		return "user-account", "standard-account"
	case "artifact":
		return objType, obj.GetString("mime_type")
	case "directory":
		return objType, obj.GetString("path")
	case "domain-name":
		return "domain", obj.GetString("value")
	case "email-addr", "ipv4-addr", "ipv6-addr", "mac-addr", "mutex", "url", "anecdote":
		return objType, obj.GetString("value")
	case "process":
		switch {
		case hasExt("windows-process-ext"):
			return objType, "windows process"
		case hasExt("windows-service-ext"):
			return objType, "windows service"
		default:
			return objType, "standard process"
		}
	case "windows-registry-key":
		return objType, obj.GetString("key")
	case "x509-certificate":
		return objType, obj.GetString("serial_number")
	default:
		return objType, obj.GetString("name")
	}
}

func sroIcon(obj stix.Object) (string, string) {
	if obj.Type() == "sighting" {
		return "sighting", "sighting"
	}
	return "relationship", obj.GetString("relationship_type")
}

// sightingIcon picks the sighting node icon from the sighting's evidence
// extension, defaulting to the generic sighting icon.
func sightingIcon(obj stix.Object) (icon, subtype string) {
	icon, subtype = "sighting", "generic"
	if exts, ok := obj["extensions"].(map[string]any); ok {
		for key := range exts {
			if key == sightingEvidenceExtID {
				continue
			}
			return key, key
		}
	}
	return icon, subtype
}
