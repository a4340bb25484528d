package main

// uploadFormHTML ist die Upload-Seite mit Fortschrittsbalken.
const uploadFormHTML = `<html>
<head>
    <title>Arrange.it - File Upload</title>
    <style>
        div.main { width: 500px; margin: auto; border: 3px solid #000; padding: 0 1em; }
        #progressBar { width: 0%; height: 30px; background-color: green; color: white; text-align: center; }
        #result { text-align: left; }
    </style>
    <script>
        function uploadFiles(event) {
            event.preventDefault();
            var formData = new FormData(document.querySelector('form'));
            var xhr = new XMLHttpRequest();
            var bar = document.getElementById('progressBar');
            xhr.upload.addEventListener('progress', function (evt) {
                if (evt.lengthComputable) {
                    var pct = parseInt((evt.loaded / evt.total) * 100);
                    bar.style.width = pct + '%';
                    bar.innerText = pct + '%';
                }
            });
            xhr.onload = function () {
                var data = {};
                try { data = JSON.parse(xhr.responseText); } catch (e) {}
                if (xhr.status !== 200) {
                    alert('Error processing files: ' + (data.error || xhr.status));
                    return;
                }
                var result = document.getElementById('result');
                result.innerText = 'Moved ' + data.moved + ' file(s).';
                if (data.unresolved && data.unresolved.length) {
                    result.innerText += ' Not found: ' + data.unresolved.map(function (u) {
                        return u.group + '/' + u.file_ref + ' (' + u.reason + ')';
                    }).join(', ');
                }
                window.location = '/uploads/' + data.filename;
            };
            xhr.onerror = function () { alert('Error uploading files.'); };
            xhr.open('POST', '/upload/');
            xhr.send(formData);
        }
    </script>
</head>
<body>
<div align="center" class="main">
    <h1>Arrange.it Organizer</h1>
    <p>Select a CSV with a <b>Team</b> column naming the folders and a <b>Photo</b> column naming the file
    to sort into each folder, then select the image files. You will receive a zip with the images sorted
    by team. Uploaded batches are removed automatically after the retention period.</p>
    <form onsubmit="uploadFiles(event)">
        <label>Select CSV: <input type="file" name="csv_file" accept=".csv,text/csv" required></label><br><br>
        <label>Select Images to Sort: <input type="file" name="image_files" multiple required></label><br><br>
        <button type="submit">Upload Files</button>
    </form>
    <div id="progressBar">0%</div>
    <p id="result"></p>
</div>
</body>
</html>
`
