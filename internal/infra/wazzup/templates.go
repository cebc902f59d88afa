package wazzup

import (
	"github.com/acompanythatsellseverything/mrhost-checkin/internal/domain/messaging"
)

// fallbackLocale is used when no template exists for the guest's country.
const fallbackLocale = "EN"

// TemplateTable maps purpose -> attempt -> locale -> provider template id.
// Single-shot purposes use attempt 0 as their only rung.
type TemplateTable map[messaging.Purpose]map[int]map[string]string

// DefaultTemplates is the provider-side template registry. Template ids are
// opaque Wazzup identifiers managed in the provider dashboard.
func DefaultTemplates() TemplateTable {
	return TemplateTable{
		messaging.PurposeCheckIn: {
			1: {
				"FR": "e0487873-ea24-498a-ad31-88c920f57736",
				"UA": "0981d98c-38b8-457c-957d-3840cd8d1c9e",
				"RU": "cb4c5c48-976f-4812-b440-1ede89080aa9",
				"NL": "f81c5598-33d0-44f0-9128-d9d0f7614d2b",
				"DE": "e0487873-ea24-498a-ad31-88c920f57736",
				"ES": "99339dbd-7763-49cf-81d8-d8a2c81d7fc1",
				"IT": "1e860765-ba4d-4859-b8b8-fb99c6390469",
				"EN": "72b43b08-5f4a-4550-b283-f8784c4308e8",
			},
			2: {
				"EN": "0455b5a4-c32f-405f-bfe9-49323a57aebe",
				"UA": "a6ac6dfb-70ff-457c-b3e1-c9764a090429",
				"RU": "83102eb9-6eb6-4865-ad56-3092938cf2bd",
				"NL": "983d3ca6-bd8d-41d8-83a9-f5dbbc18f3a6",
				"DE": "1ced05f4-82ea-46da-a86d-f9542feef50e",
				"ES": "fb275d37-d60b-4363-9602-a6d433a462b2",
				"IT": "9aa5568d-b857-497b-b961-83b87f48d194",
				"FR": "a09f82d2-ad65-4c0e-afcd-c3b1ac0ac642",
			},
			3: {
				"EN": "a43a7143-a8dc-4492-a881-b3ca2a2b0346",
				"UA": "20f8a36b-115b-4781-a523-03ea92dbf5b2",
				"RU": "1a370b8b-09c4-4070-927f-75b5877734a5",
				"NL": "038070bc-f06c-4551-b2fc-b740a5b746f4",
				"DE": "84c9783a-83d9-46e7-af60-413ee969fa20",
				"ES": "0f8bb484-4de0-4956-8380-5a01fb454748",
				"IT": "a22d6a21-e9c4-460a-a1a7-a565de185a74",
				"FR": "d4a30308-6e66-4de7-be64-c44df72aead6",
			},
		},
		messaging.PurposePostCheckIn: {
			0: {
				"EN": "fe8c4fb7-350d-4129-8776-b2921ef6557e",
				"UA": "166a31c5-9c75-4032-b95a-9fac5c3b58e3",
				"RU": "78960521-b983-4974-95d8-270d507c6821",
				"NL": "dcd64f97-5dc6-43ad-8db1-7a34237a4c19",
				"DE": "8ddb8b1b-1317-4344-b167-c08f4ec32a56",
				"ES": "34d25d7e-1a23-462a-9828-7dd52ccb9553",
				"IT": "bac96b65-9461-452d-ad1c-673e309e3b85",
				"FR": "74deda91-4852-4081-a8ee-6bc2e180590a",
			},
		},
		messaging.PurposeRegistration: {
			0: {
				"EN": "4b1f3c8e-9a52-4d07-8c33-5e2a6f1d9b84",
				"UA": "c7d92e15-6b38-44f1-a0d9-82c4e7b3f6a1",
				"RU": "9f4e8a26-3d71-49c5-b8e2-1a6d5c9f0e37",
				"ES": "2a8c6e94-5f13-47d8-9b0a-e3c1d7f48b62",
			},
		},
		messaging.PurposeVerification: {
			0: {
				"EN": "7e3b9d51-2c84-46a0-b5f7-d91e8a4c6f23",
				"UA": "d16f4a83-7e29-45c6-9d0b-3f8a2c5e1b74",
				"RU": "5c9e2f67-8a41-4d35-b6c8-0e7d3a9f1c52",
				"ES": "e84a1d39-6c57-42f8-a3b0-9d2e5f7c8a16",
			},
		},
		messaging.PurposeRegistrationDocs: {
			0: {
				"EN": "1d7c5e82-4f96-43a1-8b2d-c6e9f0a3d758",
				"UA": "a92e6f14-8d37-40c5-b1e8-5f4a7c2d9e63",
				"RU": "6f1a8c43-9e25-47d0-a8b3-2c5d7e9f4a81",
				"ES": "3e5d9a27-1f68-44c2-b7a0-8c4f6e1d2b95",
			},
		},
	}
}

// resolve maps (purpose, attempt, locale) to a template id. For ladder
// purposes the attempt selects the rung; single-shot purposes ignore it.
// Locale falls back to EN within the same rung, never to another attempt.
func (t TemplateTable) resolve(purpose messaging.Purpose, attempt int, locale string) (string, bool) {
	rungs, ok := t[purpose]
	if !ok {
		return "", false
	}
	rung := attempt
	if !purpose.Ladder() {
		rung = 0
	}
	byLocale, ok := rungs[rung]
	if !ok {
		return "", false
	}
	if id, ok := byLocale[locale]; ok && id != "" {
		return id, true
	}
	if id, ok := byLocale[fallbackLocale]; ok && id != "" {
		return id, true
	}
	return "", false
}
