package notionsync

import (
	"time"

	"github.com/jomei/notionapi"
)

// Property names of the registry database in Notion.
const (
	propName        = "Name"
	propDescription = "Description"
	propStatus      = "Status"
	propTags        = "Tags"
)

// Defaults applied when converting a record with unset fields.
const (
	defaultName   = "Untitled"
	defaultStatus = "Draft"
)

// LocalRecord is the registry-side representation of one service entry.
// NotionPageID is empty until the record has been created remotely; the
// connector itself keeps no mapping between local entries and page IDs.
type LocalRecord struct {
	NotionPageID string
	Name         string
	Description  string
	Status       string
	Tags         []string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// RemoteRecord is one page as returned by the Notion API, with the fields
// the connector cares about lifted out. Timestamps are assigned by Notion
// and never written back.
type RemoteRecord struct {
	ID             string
	Properties     notionapi.Properties
	CreatedTime    time.Time
	LastEditedTime time.Time
}

// RecordToNotionProperties converts a LocalRecord to Notion properties.
// All four schema fields are always present in the result; unset fields
// get fixed defaults (Name "Untitled", Status "Draft", empty Description
// and Tags). This is a pure mapping and never fails.
func RecordToNotionProperties(rec LocalRecord) notionapi.Properties {
	name := rec.Name
	if name == "" {
		name = defaultName
	}
	status := rec.Status
	if status == "" {
		status = defaultStatus
	}

	tags := make([]notionapi.Option, 0, len(rec.Tags))
	for _, tag := range rec.Tags {
		tags = append(tags, notionapi.Option{Name: tag})
	}

	return notionapi.Properties{
		propName: notionapi.TitleProperty{
			Title: []notionapi.RichText{
				{
					Type: notionapi.ObjectTypeText,
					Text: &notionapi.Text{
						Content: name,
					},
				},
			},
		},
		propDescription: notionapi.RichTextProperty{
			RichText: []notionapi.RichText{
				{
					Type: notionapi.ObjectTypeText,
					Text: &notionapi.Text{
						Content: rec.Description,
					},
				},
			},
		},
		propStatus: notionapi.SelectProperty{
			Select: notionapi.Option{
				Name: status,
			},
		},
		propTags: notionapi.MultiSelectProperty{
			MultiSelect: tags,
		},
	}
}

// PageToRemoteRecord lifts a Notion page into a RemoteRecord.
func PageToRemoteRecord(page notionapi.Page) RemoteRecord {
	return RemoteRecord{
		ID:             string(page.ID),
		Properties:     page.Properties,
		CreatedTime:    page.CreatedTime,
		LastEditedTime: page.LastEditedTime,
	}
}

// RemoteRecordToLocal converts a RemoteRecord to a LocalRecord. Every
// property is read through a defensive accessor: missing or unexpectedly
// shaped properties yield empty values rather than failing, so the
// conversion is total. Timestamps are copied from the remote record.
func RemoteRecordToLocal(remote RemoteRecord) LocalRecord {
	return LocalRecord{
		NotionPageID: remote.ID,
		Name:         titleText(remote.Properties, propName),
		Description:  richTextText(remote.Properties, propDescription),
		Status:       selectName(remote.Properties, propStatus),
		Tags:         multiSelectNames(remote.Properties, propTags),
		CreatedAt:    remote.CreatedTime,
		UpdatedAt:    remote.LastEditedTime,
	}
}

// titleText extracts the first fragment of a title property.
// Returns empty string if the property is missing or not a title.
func titleText(props notionapi.Properties, key string) string {
	switch p := props[key].(type) {
	case *notionapi.TitleProperty:
		return firstText(p.Title)
	case notionapi.TitleProperty:
		return firstText(p.Title)
	}
	return ""
}

// richTextText extracts the first fragment of a rich_text property.
// Returns empty string if the property is missing or not rich text.
func richTextText(props notionapi.Properties, key string) string {
	switch p := props[key].(type) {
	case *notionapi.RichTextProperty:
		return firstText(p.RichText)
	case notionapi.RichTextProperty:
		return firstText(p.RichText)
	}
	return ""
}

// selectName extracts the selected option name of a select property.
// Returns empty string if the property is missing or not a select.
func selectName(props notionapi.Properties, key string) string {
	switch p := props[key].(type) {
	case *notionapi.SelectProperty:
		return p.Select.Name
	case notionapi.SelectProperty:
		return p.Select.Name
	}
	return ""
}

// multiSelectNames extracts the option names of a multi_select property.
// Returns an empty slice if the property is missing or not a multi select.
func multiSelectNames(props notionapi.Properties, key string) []string {
	var options []notionapi.Option
	switch p := props[key].(type) {
	case *notionapi.MultiSelectProperty:
		options = p.MultiSelect
	case notionapi.MultiSelectProperty:
		options = p.MultiSelect
	}

	names := make([]string, 0, len(options))
	for _, opt := range options {
		names = append(names, opt.Name)
	}
	return names
}

// firstText returns the plain text of the first rich text fragment.
// Pages fetched from the API carry PlainText; locally built fragments
// only carry Text.Content.
func firstText(fragments []notionapi.RichText) string {
	if len(fragments) == 0 {
		return ""
	}
	if fragments[0].PlainText != "" {
		return fragments[0].PlainText
	}
	if fragments[0].Text != nil {
		return fragments[0].Text.Content
	}
	return ""
}
