// Package htmldoc is the small HTML query surface the portal client needs.
//
// It wraps goquery so the rest of the module only deals with four
// operations: parsing a page, looking an element up by id, collecting
// elements by tag and attribute values, and reading an element's text or
// attributes. Select elements get a couple of helpers on top because the
// portal encodes almost all of its state in <select> and <option> tags.
//
//	doc, err := htmldoc.Parse(body)
//	if err != nil {
//	    return err
//	}
//	if sel := doc.FindByID("id_select_controller"); sel != nil {
//	    fmt.Println(sel.OptionTexts(), sel.SelectedIndex())
//	}
package htmldoc
