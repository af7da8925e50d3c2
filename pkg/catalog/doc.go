// Package catalog imports kinds and fragments from a YAML document.
//
// A catalog lists fragments and kinds with their templates, inline or in
// separate files, and the images their templates reference:
//
//	fragments:
//	  - name: footer
//	    content_file: fragments/footer.html
//	    images:
//	      - {placeholder: brand, file: img/brand.png}
//	kinds:
//	  - name: welcome
//	    language: es
//	    template_file: welcome.es.html
//	    plain_template: "Hola {{.name}}"
//	    default_subject: Bienvenido
//	    fragments: [footer]
//	    images:
//	      - {placeholder: logo, file: img/logo.png}
//
// Images are uploaded to object storage under images/<kind>/<language>/ and
// images/fragments/<fragment>/ before the records are saved.
package catalog
