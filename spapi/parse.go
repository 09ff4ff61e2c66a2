package spapi

import (
	"encoding/json"
	"strings"
)

// The remote APIs disagree on field-name casing between versions
// (inboundPlanId, InboundPlanId, inbound_plan_id). Everything that branches
// on raw JSON shape lives in this file; lookups fold case and underscores so
// the rest of the package sees one normalized struct per payload.

func foldKey(k string) string {
	return strings.ReplaceAll(strings.ToLower(k), "_", "")
}

func lookup(m map[string]any, key string) (any, bool) {
	if v, ok := m[key]; ok {
		return v, true
	}
	want := foldKey(key)
	for k, v := range m {
		if foldKey(k) == want {
			return v, true
		}
	}
	return nil, false
}

func pickString(m map[string]any, keys ...string) string {
	for _, key := range keys {
		if v, ok := lookup(m, key); ok {
			if s, ok := v.(string); ok && s != "" {
				return s
			}
		}
	}
	return ""
}

func pickBool(m map[string]any, keys ...string) bool {
	for _, key := range keys {
		if v, ok := lookup(m, key); ok {
			switch t := v.(type) {
			case bool:
				return t
			case string:
				return strings.EqualFold(t, "true")
			}
		}
	}
	return false
}

func pickInt(m map[string]any, keys ...string) int {
	for _, key := range keys {
		if v, ok := lookup(m, key); ok {
			switch t := v.(type) {
			case float64:
				return int(t)
			case int:
				return t
			}
		}
	}
	return 0
}

func pickSlice(m map[string]any, keys ...string) []any {
	for _, key := range keys {
		if v, ok := lookup(m, key); ok {
			if s, ok := v.([]any); ok {
				return s
			}
		}
	}
	return nil
}

// hasKey reports presence regardless of value, for payloads where an omitted
// array means something different from an empty one.
func hasKey(m map[string]any, keys ...string) bool {
	for _, key := range keys {
		if _, ok := lookup(m, key); ok {
			return true
		}
	}
	return false
}

func pickMap(m map[string]any, keys ...string) map[string]any {
	for _, key := range keys {
		if v, ok := lookup(m, key); ok {
			if mm, ok := v.(map[string]any); ok {
				return mm
			}
		}
	}
	return nil
}

func pickStringSlice(m map[string]any, keys ...string) []string {
	raw := pickSlice(m, keys...)
	out := make([]string, 0, len(raw))
	for _, v := range raw {
		switch t := v.(type) {
		case string:
			out = append(out, t)
		case map[string]any:
			// Some versions wrap scalar lists in {"id": ...} or
			// {"value": ...} objects.
			if s := pickString(t, "id", "value", "code"); s != "" {
				out = append(out, s)
			}
		}
	}
	return out
}

// decodeEnvelope unmarshals a response body and unwraps the v0-style
// {"payload": {...}} envelope when present.
func decodeEnvelope(op string, body []byte) (map[string]any, error) {
	var m map[string]any
	if err := json.Unmarshal(body, &m); err != nil {
		return nil, MalformedResponseError{Operation: op, Cause: err}
	}
	if payload := pickMap(m, "payload"); payload != nil {
		return payload, nil
	}
	return m, nil
}

func decodeAPIErrors(body []byte) []APIError {
	var m map[string]any
	if err := json.Unmarshal(body, &m); err != nil {
		return nil
	}
	raw := pickSlice(m, "errors", "errorList")
	out := make([]APIError, 0, len(raw))
	for _, v := range raw {
		em, ok := v.(map[string]any)
		if !ok {
			continue
		}
		out = append(out, APIError{
			Code:    pickString(em, "code", "errorCode"),
			Message: pickString(em, "message", "errorMessage"),
			Details: pickString(em, "details", "errorDetails"),
		})
	}
	return out
}

func decodeInboundPlan(op string, body []byte) (*InboundPlan, error) {
	m, err := decodeEnvelope(op, body)
	if err != nil {
		return nil, err
	}
	plan := &InboundPlan{
		ID:     pickString(m, "inboundPlanId", "planId", "id"),
		Status: pickString(m, "status", "planStatus"),
	}
	for _, v := range pickSlice(m, "shipments") {
		sm, ok := v.(map[string]any)
		if !ok {
			continue
		}
		shipment := Shipment{
			ID:             pickString(sm, "shipmentId", "id"),
			ConfirmationID: pickString(sm, "shipmentConfirmationId", "confirmationId"),
			DestinationFC:  pickString(sm, "warehouseId", "destinationFulfillmentCenterId"),
		}
		if dest := pickMap(sm, "destination", "destinationAddress", "shipToAddress"); dest != nil {
			if shipment.DestinationFC == "" {
				shipment.DestinationFC = pickString(dest, "warehouseId", "destinationFulfillmentCenterId")
			}
			if addr := pickMap(dest, "address"); addr != nil {
				shipment.DestinationAddress = pickString(addr, "addressLine1")
				shipment.DestinationCountry = pickString(addr, "countryCode")
			} else {
				shipment.DestinationAddress = pickString(dest, "addressLine1")
				shipment.DestinationCountry = pickString(dest, "countryCode")
			}
		}
		plan.Shipments = append(plan.Shipments, shipment)
	}
	return plan, nil
}

func decodeOperation(op string, body []byte) (*Operation, error) {
	m, err := decodeEnvelope(op, body)
	if err != nil {
		return nil, err
	}
	operation := &Operation{
		ID:     pickString(m, "operationId", "id"),
		Status: pickString(m, "operationStatus", "status"),
	}
	for _, v := range pickSlice(m, "operationProblems", "problems") {
		pm, ok := v.(map[string]any)
		if !ok {
			continue
		}
		operation.Problems = append(operation.Problems, Problem{
			Code:     pickString(pm, "code"),
			Message:  pickString(pm, "message"),
			Severity: pickString(pm, "severity"),
			Details:  pickString(pm, "details"),
		})
	}
	return operation, nil
}

func decodePackingOptions(op string, body []byte) ([]PackingOption, error) {
	m, err := decodeEnvelope(op, body)
	if err != nil {
		return nil, err
	}
	var options []PackingOption
	for _, v := range pickSlice(m, "packingOptions") {
		om, ok := v.(map[string]any)
		if !ok {
			continue
		}
		option := PackingOption{
			ID:     pickString(om, "packingOptionId", "id"),
			Status: pickString(om, "status"),
		}
		option.PackingGroupIDs = pickStringSlice(om, "packingGroups", "packingGroupIds")
		for _, d := range pickSlice(om, "discounts", "fees") {
			dm, ok := d.(map[string]any)
			if !ok {
				continue
			}
			if t := pickString(dm, "type", "description"); t != "" {
				option.Discounts = append(option.Discounts, t)
			}
		}
		options = append(options, option)
	}
	return options, nil
}

func decodePackingGroupItems(op string, body []byte) ([]PackingGroupItem, error) {
	m, err := decodeEnvelope(op, body)
	if err != nil {
		return nil, err
	}
	var items []PackingGroupItem
	for _, v := range pickSlice(m, "items") {
		im, ok := v.(map[string]any)
		if !ok {
			continue
		}
		items = append(items, PackingGroupItem{
			MSKU:       pickString(im, "msku", "sellerSku", "sku"),
			FNSKU:      pickString(im, "fnsku", "fulfillmentNetworkSku"),
			Quantity:   pickInt(im, "quantity"),
			LabelOwner: pickString(im, "labelOwner"),
			PrepOwner:  pickString(im, "prepOwner"),
		})
	}
	return items, nil
}

// expirationDatedAttributes reports whether a listing/catalog attribute map
// flags the product as expiration dated or carries any shelf-life attribute.
func expirationDatedAttributes(attrs map[string]any) bool {
	if attrs == nil {
		return false
	}
	if raw := pickSlice(attrs, "is_expiration_dated_product", "isExpirationDatedProduct"); raw != nil {
		for _, v := range raw {
			if vm, ok := v.(map[string]any); ok && pickBool(vm, "value") {
				return true
			}
		}
	}
	if pickBool(attrs, "is_expiration_dated_product", "isExpirationDatedProduct") {
		return true
	}
	for k := range attrs {
		if strings.Contains(foldKey(k), "shelflife") {
			return true
		}
	}
	return false
}

func decodeListing(op string, body []byte) (*Listing, error) {
	var m map[string]any
	if err := json.Unmarshal(body, &m); err != nil {
		return nil, MalformedResponseError{Operation: op, Cause: err}
	}
	listing := &Listing{}
	for _, v := range pickSlice(m, "summaries") {
		sm, ok := v.(map[string]any)
		if !ok {
			continue
		}
		if listing.ASIN == "" {
			listing.ASIN = pickString(sm, "asin")
		}
		if hasKey(sm, "status") {
			listing.HasStatuses = true
			listing.Statuses = append(listing.Statuses, pickStringSlice(sm, "status")...)
		}
	}
	listing.ExpirationDated = expirationDatedAttributes(pickMap(m, "attributes"))
	return listing, nil
}

func decodeCatalogItem(op string, body []byte) (*CatalogItem, error) {
	var m map[string]any
	if err := json.Unmarshal(body, &m); err != nil {
		return nil, MalformedResponseError{Operation: op, Cause: err}
	}
	item := &CatalogItem{
		ASIN: pickString(m, "asin"),
	}
	for _, v := range pickSlice(m, "summaries") {
		sm, ok := v.(map[string]any)
		if !ok {
			continue
		}
		if item.Title == "" {
			item.Title = pickString(sm, "itemName", "title")
		}
	}
	item.ExpirationDated = expirationDatedAttributes(pickMap(m, "attributes"))
	return item, nil
}

func decodeRestrictionReasons(op string, body []byte) ([]string, error) {
	m, err := decodeEnvelope(op, body)
	if err != nil {
		return nil, err
	}
	var reasons []string
	for _, v := range pickSlice(m, "restrictions") {
		rm, ok := v.(map[string]any)
		if !ok {
			continue
		}
		for _, r := range pickSlice(rm, "reasons") {
			if rrm, ok := r.(map[string]any); ok {
				if code := pickString(rrm, "reasonCode", "code"); code != "" {
					reasons = append(reasons, code)
				}
			}
		}
	}
	return reasons, nil
}

func decodePrepInstructions(op string, body []byte) (map[string]PrepGuidance, error) {
	m, err := decodeEnvelope(op, body)
	if err != nil {
		return nil, err
	}
	out := make(map[string]PrepGuidance)
	for _, v := range pickSlice(m, "SKUPrepInstructionsList", "skuPrepInstructions") {
		gm, ok := v.(map[string]any)
		if !ok {
			continue
		}
		guidance := PrepGuidance{
			SKU:                pickString(gm, "SellerSKU", "msku"),
			BarcodeInstruction: pickString(gm, "BarcodeInstruction"),
			PrepGuidance:       pickString(gm, "PrepGuidance"),
			PrepInstructions:   pickStringSlice(gm, "PrepInstructionList", "prepInstructions"),
		}
		if guidance.SKU != "" {
			out[guidance.SKU] = guidance
		}
	}
	return out, nil
}
