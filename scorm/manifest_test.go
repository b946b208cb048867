package scorm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const scorm12Manifest = `<?xml version="1.0" encoding="UTF-8"?>
<manifest identifier="com.example.course" version="1.2"
    xmlns="http://www.imsproject.org/xsd/imscp_rootv1p1p2"
    xmlns:adlcp="http://www.adlnet.org/xsd/adlcp_rootv1p2">
  <metadata>
    <schema>ADL SCORM</schema>
    <schemaversion>1.2</schemaversion>
  </metadata>
  <organizations default="ORG-1">
    <organization identifier="ORG-1">
      <title>Safety Training</title>
      <item identifier="ITEM-1" identifierref="RES-1">
        <title>Module 1</title>
        <adlcp:masteryscore>80</adlcp:masteryscore>
      </item>
    </organization>
  </organizations>
  <resources>
    <resource identifier="RES-1" type="webcontent" adlcp:scormtype="sco" href="sco/start.html">
      <file href="sco/start.html"/>
    </resource>
    <resource identifier="RES-2" type="webcontent" href="assets/style.css"/>
  </resources>
</manifest>`

const scorm2004Manifest = `<?xml version="1.0" encoding="UTF-8"?>
<manifest identifier="com.example.course2004" version="1"
    xmlns="http://www.imsglobal.org/xsd/imscp_v1p1"
    xmlns:adlcp="http://www.adlnet.org/xsd/adlcp_v1p3">
  <metadata>
    <schema>ADL SCORM</schema>
    <schemaversion>2004 4th Edition</schemaversion>
  </metadata>
  <organizations default="ORG-1">
    <organization identifier="ORG-1">
      <title>Compliance 2024</title>
      <item identifier="ITEM-1" identifierref="RES-1">
        <title>Lesson</title>
      </item>
    </organization>
  </organizations>
  <resources>
    <resource identifier="RES-1" type="webcontent" adlcp:scormType="sco" href="index_lms.html"/>
  </resources>
</manifest>`

func TestParseManifestScorm12(t *testing.T) {
	manifest, err := ParseManifest([]byte(scorm12Manifest))
	require.NoError(t, err)

	assert.Equal(t, Scorm12, manifest.Version)
	assert.Equal(t, "Safety Training", manifest.Title)
	assert.Equal(t, "sco/start.html", manifest.LaunchUrl)

	require.Len(t, manifest.Organizations, 1)
	org := manifest.Organizations[0]
	assert.Equal(t, "ORG-1", org.Identifier)
	require.Len(t, org.Items, 1)
	assert.Equal(t, "RES-1", org.Items[0].ResourceRef)

	require.Len(t, manifest.Resources, 2)
	assert.Equal(t, "sco", manifest.Resources[0].ScormType)

	// Mastery score is a 2004 concern; 1.2 packages ignore it here
	assert.Nil(t, manifest.MasteryScore)
}

func TestParseManifestScorm2004(t *testing.T) {
	manifest, err := ParseManifest([]byte(scorm2004Manifest))
	require.NoError(t, err)

	assert.Equal(t, Scorm2004, manifest.Version)
	assert.Equal(t, "Compliance 2024", manifest.Title)
	// scormType attribute casing differs between dialect schemas
	assert.Equal(t, "index_lms.html", manifest.LaunchUrl)
}

func TestParseManifestMissingSchemaVersionDefaultsTo12(t *testing.T) {
	manifest, err := ParseManifest([]byte(`<manifest>
		<organizations><organization identifier="O"><title>T</title></organization></organizations>
		<resources><resource identifier="R" type="webcontent" href="a.html"/></resources>
	</manifest>`))
	require.NoError(t, err)
	assert.Equal(t, Scorm12, manifest.Version)
}

func TestParseManifestLaunchFallsBackToFirstHref(t *testing.T) {
	// No sco-marked resource: the first resource with an href wins, not the
	// index.html fallback
	manifest, err := ParseManifest([]byte(`<manifest>
		<resources>
			<resource identifier="R1" type="webcontent"/>
			<resource identifier="R2" type="webcontent" href="content/page.html"/>
			<resource identifier="R3" type="webcontent" href="other.html"/>
		</resources>
	</manifest>`))
	require.NoError(t, err)
	assert.Equal(t, "content/page.html", manifest.LaunchUrl)
}

func TestParseManifestLaunchLiteralFallback(t *testing.T) {
	manifest, err := ParseManifest([]byte(`<manifest>
		<resources><resource identifier="R1" type="webcontent"/></resources>
	</manifest>`))
	require.NoError(t, err)
	assert.Equal(t, "index.html", manifest.LaunchUrl)
}

func TestParseManifestScoWinsOverEarlierHref(t *testing.T) {
	manifest, err := ParseManifest([]byte(`<manifest>
		<resources>
			<resource identifier="R1" type="webcontent" href="assets/help.html"/>
			<resource identifier="R2" type="webcontent" scormtype="SCO" href="player.html"/>
		</resources>
	</manifest>`))
	require.NoError(t, err)
	assert.Equal(t, "player.html", manifest.LaunchUrl)
}

func TestParseManifestMalformedXML(t *testing.T) {
	_, err := ParseManifest([]byte(`<manifest><organizations>`))
	assert.Error(t, err)
}

func TestParseManifestMasteryScore2004(t *testing.T) {
	manifest, err := ParseManifest([]byte(`<manifest>
		<schemaversion>CAM 1.3 2004</schemaversion>
		<masteryscore>75.5</masteryscore>
		<resources><resource identifier="R" href="go.html"/></resources>
	</manifest>`))
	require.NoError(t, err)
	require.NotNil(t, manifest.MasteryScore)
	assert.Equal(t, 75.5, *manifest.MasteryScore)
}

func TestValidateLaunchTarget(t *testing.T) {
	manifest := &Manifest{LaunchUrl: "sco/start.html"}
	assert.NoError(t, manifest.ValidateLaunchTarget([]string{"imsmanifest.xml", "sco/start.html"}))
	assert.Error(t, manifest.ValidateLaunchTarget([]string{"imsmanifest.xml"}))

	// Query parameters in the href do not break target resolution
	manifest.LaunchUrl = "index.html?lesson=1"
	assert.NoError(t, manifest.ValidateLaunchTarget([]string{"index.html"}))
}
